package entity

import "fmt"

// SplitCount число снимков по классам в одном сплите
type SplitCount struct {
	Split    string
	Normal   int
	Positive int
}

// Total возвращает общее число снимков в сплите.
func (c SplitCount) Total() int {
	return c.Normal + c.Positive
}

func (c SplitCount) String() string {
	return fmt.Sprintf("Set:%s,normal images :%d,illness-positive images:%d", c.Split, c.Normal, c.Positive)
}

// DistributionReport распределение классов по сплитам датасета.
type DistributionReport struct {
	Root   string
	Splits []SplitCount
}

// Split возвращает счётчики сплита по имени.
func (r *DistributionReport) Split(name string) (SplitCount, bool) {
	for _, s := range r.Splits {
		if s.Split == name {
			return s, true
		}
	}
	return SplitCount{}, false
}
