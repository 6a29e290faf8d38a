package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseMap reads a MovingAI benchmark map:
//
//	type octile
//	height 4
//	width 4
//	map
//	....
//
// '.', 'G' and 'S' are free; every other character is an obstacle.
func ParseMap(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	height, width := -1, -1
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "map" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		n, err := strconv.Atoi(fields[1])
		switch fields[0] {
		case "height":
			if err != nil {
				return nil, fmt.Errorf("parse height: %w", err)
			}
			height = n
		case "width":
			if err != nil {
				return nil, fmt.Errorf("parse width: %w", err)
			}
			width = n
		}
	}
	var rows []string
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	g, err := ParseRows(rows)
	if err != nil {
		return nil, err
	}
	if height >= 0 && g.Rows != height {
		return nil, fmt.Errorf("map has %d rows, header says %d", g.Rows, height)
	}
	if width >= 0 && g.Cols != width {
		return nil, fmt.Errorf("map has %d columns, header says %d", g.Cols, width)
	}
	return g, nil
}

// ParseRows builds a grid from equally long rows of map characters.
func ParseRows(rows []string) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty map", ErrInvalidInstance)
	}
	g := NewGrid(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != g.Cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r, len(row), g.Cols)
		}
		for c := 0; c < len(row); c++ {
			switch row[c] {
			case '.', 'G', 'S':
			default:
				g.Block(g.Index(r, c))
			}
		}
	}
	return g, nil
}

// LoadMap parses the MovingAI map at path.
func LoadMap(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := ParseMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// RowStrings renders the grid back into map characters.
func (g *Grid) RowStrings() []string {
	out := make([]string, g.Rows)
	var b strings.Builder
	for r := 0; r < g.Rows; r++ {
		b.Reset()
		for c := 0; c < g.Cols; c++ {
			if g.Passable(g.Index(r, c)) {
				b.WriteByte('.')
			} else {
				b.WriteByte('@')
			}
		}
		out[r] = b.String()
	}
	return out
}
