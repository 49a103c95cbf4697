package dataset

import (
	"context"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"xray-diagnoser/internal/domain/entity"
)

func TestGenerator_EpochCoversAllSamples(t *testing.T) {
	root := t.TempDir()
	writeSplit(t, root, "train", 4, 3)
	gen, err := NewGenerator(filepath.Join(root, "train"), entity.DefaultClasses(), &byteDecoder{}, PlainGeneratorOptions(4, 3, 232))
	require.NoError(t, err)
	require.Equal(t, 7, gen.Samples())
	require.Equal(t, 3, gen.StepsPerEpoch())

	ctx := context.Background()
	var paths []string
	sizes := []int{}
	for i := 0; i < gen.StepsPerEpoch(); i++ {
		b, err := gen.Next(ctx)
		require.NoError(t, err)
		sizes = append(sizes, b.Len())
		paths = append(paths, b.Paths...)
	}
	require.Equal(t, []int{3, 3, 1}, sizes)
	require.Equal(t, 0, gen.Epoch())

	sort.Strings(paths)
	require.Len(t, paths, 7)
	for i := 1; i < len(paths); i++ {
		require.NotEqual(t, paths[i-1], paths[i])
	}

	// следующий вызов начинает новую эпоху
	_, err = gen.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, gen.Epoch())
}

func TestGenerator_SeedReproducible(t *testing.T) {
	root := t.TempDir()
	writeSplit(t, root, "train", 5, 5)
	dir := filepath.Join(root, "train")
	ctx := context.Background()

	a, err := NewGenerator(dir, entity.DefaultClasses(), &byteDecoder{}, TrainingGeneratorOptions(8, 4, 232))
	require.NoError(t, err)
	b, err := NewGenerator(dir, entity.DefaultClasses(), &byteDecoder{}, TrainingGeneratorOptions(8, 4, 232))
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		ba, err := a.Next(ctx)
		require.NoError(t, err)
		bb, err := b.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, ba, bb)
	}

	// Reset повторяет поток с начала
	a.Reset()
	b.Reset()
	ba, err := a.Next(ctx)
	require.NoError(t, err)
	bb, err := b.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, ba, bb)
}

func TestGenerator_InvalidOptions(t *testing.T) {
	root := t.TempDir()
	writeSplit(t, root, "train", 1, 1)
	_, err := NewGenerator(filepath.Join(root, "train"), entity.DefaultClasses(), &byteDecoder{}, GeneratorOptions{Dim: 4})
	require.ErrorIs(t, err, entity.ErrInvalidConfig)
}

func TestAugmenter_IdentityWhenDisabled(t *testing.T) {
	gray := []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9}
	out := Augmenter{}.Apply(rand.New(rand.NewSource(1)), gray, 3)
	require.Equal(t, gray, out)
}

func TestAugmenter_FlipOnly(t *testing.T) {
	gray := []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9}
	flipped := []uint8{7, 8, 9, 4, 5, 6, 1, 2, 3}
	rng := rand.New(rand.NewSource(1))
	aug := Augmenter{VerticalFlip: true}

	seenFlip, seenSame := false, false
	for i := 0; i < 32; i++ {
		out := aug.Apply(rng, gray, 3)
		switch {
		case equalBytes(out, flipped):
			seenFlip = true
		case equalBytes(out, gray):
			seenSame = true
		default:
			t.Fatalf("unexpected output %v", out)
		}
	}
	require.True(t, seenFlip)
	require.True(t, seenSame)
}

func TestAugmenter_ZoomKeepsUniformImage(t *testing.T) {
	gray := make([]uint8, 16*16)
	for i := range gray {
		gray[i] = 77
	}
	out := Augmenter{ZoomRange: 0.3}.Apply(rand.New(rand.NewSource(3)), gray, 16)
	require.Equal(t, gray, out)
}

func equalBytes(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
