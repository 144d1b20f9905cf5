package record

import "strconv"

// column type classes for header detection
const (
	classNone = iota
	classInt
	classFloat
	classLength // fallback: consistent string length
	classMixed
)

type columnClass struct {
	class  int
	length int
}

func classify(cell string) columnClass {
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return columnClass{class: classInt}
	}

	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return columnClass{class: classFloat}
	}

	return columnClass{class: classLength, length: len(cell)}
}

func (c columnClass) matches(cell string) bool {
	switch c.class {
	case classInt:
		_, err := strconv.ParseInt(cell, 10, 64)

		return err == nil

	case classFloat:
		_, err := strconv.ParseFloat(cell, 64)

		return err == nil

	case classLength:
		return len(cell) == c.length

	default:
		return false
	}
}

// DetectHeader reports whether the first record of recs looks like a
// header row. Each column of a sample of the remaining rows is
// classified as an int, a float, or a string of consistent length. The
// first row then votes: each column whose class the first row does not
// match counts toward it being a header, each match counts against.
func DetectHeader(recs []Record) bool {
	if len(recs) == 0 {
		return false
	}

	header := recs[0]
	columns := len(header.Fields)
	classes := make([]columnClass, columns)

	irregular := 0
	sampled := 0

	rest := recs[1:]
	if len(rest) > 20 {
		rest = rest[:20]
	}

	for _, row := range rest {
		if len(row.Fields) != columns {
			irregular++
			if irregular > 4 {
				return false
			}

			continue
		}

		sampled++

		for col := range classes {
			class := classify(row.Fields[col])
			switch {
			case classes[col].class == classNone:
				classes[col] = class
			case classes[col] != class:
				classes[col] = columnClass{class: classMixed}
			}
		}
	}

	if sampled < irregular {
		return false
	}

	score := 0

	for col, class := range classes {
		if class.class == classNone || class.class == classMixed {
			continue
		}

		if class.matches(header.Fields[col]) {
			score--
		} else {
			score++
		}
	}

	return score > 0
}
