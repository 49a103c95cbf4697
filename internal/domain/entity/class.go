package entity

import "fmt"

// Label бинарная метка снимка
type Label int

const (
	LabelNormal   Label = 0 // здоровые лёгкие
	LabelPositive Label = 1 // пневмония / COVID-19
)

// Valid проверяет, что метка бинарная.
func (l Label) Valid() bool {
	return l == LabelNormal || l == LabelPositive
}

// ClassMapping связывает папку датасета с меткой
type ClassMapping struct {
	Folder string `yaml:"folder"`
	Label  Label  `yaml:"label"`
}

// ClassSet явное соответствие папок и меток
type ClassSet []ClassMapping

// DefaultClasses возвращает раскладку NORMAL / PNEUMONIA.
func DefaultClasses() ClassSet {
	return ClassSet{
		{Folder: "NORMAL", Label: LabelNormal},
		{Folder: "PNEUMONIA", Label: LabelPositive},
	}
}

// Validate проверяет, что классов ровно два и метки 0 и 1.
func (c ClassSet) Validate() error {
	if len(c) != 2 {
		return fmt.Errorf("%w: expected 2 classes, got %d", ErrInvalidConfig, len(c))
	}
	seenLabel := make(map[Label]bool, 2)
	seenFolder := make(map[string]bool, 2)
	for _, m := range c {
		if m.Folder == "" {
			return fmt.Errorf("%w: empty class folder", ErrInvalidConfig)
		}
		if !m.Label.Valid() {
			return fmt.Errorf("%w: class %s has non-binary label %d", ErrInvalidConfig, m.Folder, m.Label)
		}
		if seenLabel[m.Label] {
			return fmt.Errorf("%w: duplicate label %d", ErrInvalidConfig, m.Label)
		}
		if seenFolder[m.Folder] {
			return fmt.Errorf("%w: duplicate folder %s", ErrInvalidConfig, m.Folder)
		}
		seenLabel[m.Label] = true
		seenFolder[m.Folder] = true
	}
	return nil
}

// Folder возвращает имя папки для метки.
func (c ClassSet) Folder(label Label) (string, bool) {
	for _, m := range c {
		if m.Label == label {
			return m.Folder, true
		}
	}
	return "", false
}

// Lookup возвращает метку по имени папки.
func (c ClassSet) Lookup(folder string) (Label, bool) {
	for _, m := range c {
		if m.Folder == folder {
			return m.Label, true
		}
	}
	return 0, false
}

// Ordered возвращает классы в порядке меток: сначала 0, потом 1.
func (c ClassSet) Ordered() ClassSet {
	out := make(ClassSet, 0, len(c))
	for _, l := range []Label{LabelNormal, LabelPositive} {
		if folder, ok := c.Folder(l); ok {
			out = append(out, ClassMapping{Folder: folder, Label: l})
		}
	}
	return out
}
