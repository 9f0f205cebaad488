// Package csv imports leads from CSV files.
//
// Files carry a header row naming the columns in any order. Recognised
// columns are name, company, phone, segment and lines, with their
// Portuguese equivalents nome, empresa, telefone, segmento/status and
// linhas. Fields may be separated by commas or semicolons.
package csv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/sdr"
	"golang.org/x/sync/errgroup"
)

type column int

const (
	colName column = iota
	colCompany
	colPhone
	colSegment
	colLines
)

var headers = map[string]column{
	"name":     colName,
	"nome":     colName,
	"company":  colCompany,
	"empresa":  colCompany,
	"phone":    colPhone,
	"telefone": colPhone,
	"segment":  colSegment,
	"segmento": colSegment,
	"status":   colSegment,
	"lines":    colLines,
	"linhas":   colLines,
}

// Decode reads leads from r. Every row is validated; the first invalid row
// fails the whole file.
func Decode(r io.Reader) ([]sdr.Lead, error) {
	br := bufio.NewReader(r)
	cr := csv.NewReader(br)
	cr.Comma = sniffComma(br)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row: %w", sdr.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var leads []sdr.Lead
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return leads, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}
		lead, err := decodeRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		leads = append(leads, lead)
	}
}

// sniffComma picks ';' when the header line has semicolons and no commas.
func sniffComma(br *bufio.Reader) rune {
	peek, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	if bytes.ContainsRune(peek, ';') && !bytes.ContainsRune(peek, ',') {
		return ';'
	}
	return ','
}

func mapHeader(header []string) (map[column]int, error) {
	index := make(map[column]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		col, ok := headers[key]
		if !ok {
			continue
		}
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("duplicate column %q: %w", h, sdr.ErrValidation)
		}
		index[col] = i
	}
	for _, required := range []struct {
		col  column
		name string
	}{{colName, "name"}, {colCompany, "company"}, {colSegment, "segment"}} {
		if _, ok := index[required.col]; !ok {
			return nil, fmt.Errorf("missing %s column: %w", required.name, sdr.ErrValidation)
		}
	}
	return index, nil
}

func decodeRecord(record []string, index map[column]int) (sdr.Lead, error) {
	field := func(c column) string {
		i, ok := index[c]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	segment, err := sdr.ParseSegment(field(colSegment))
	if err != nil {
		return sdr.Lead{}, err
	}
	lead := sdr.Lead{
		Name:    field(colName),
		Company: field(colCompany),
		Phone:   field(colPhone),
		Segment: segment,
	}
	if s := field(colLines); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return sdr.Lead{}, fmt.Errorf("lines %q: %w", s, sdr.ErrValidation)
		}
		lead.Lines = n
	}
	if err := lead.Validate(); err != nil {
		return sdr.Lead{}, err
	}
	return lead, nil
}

// ParseLead parses a single lead written as one CSV record in the order
// name, company, phone, segment and optionally lines, as typed when a lead
// is registered by hand.
func ParseLead(s string) (sdr.Lead, error) {
	cr := csv.NewReader(strings.NewReader(s))
	cr.Comma = sniffComma(bufio.NewReader(strings.NewReader(s)))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	record, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return sdr.Lead{}, fmt.Errorf("empty lead: %w", sdr.ErrValidation)
	}
	if err != nil {
		return sdr.Lead{}, fmt.Errorf("parse lead: %w", err)
	}
	if len(record) < 4 || len(record) > 5 {
		return sdr.Lead{}, fmt.Errorf("lead needs name, company, phone and segment: %w", sdr.ErrValidation)
	}
	return decodeRecord(record, positional)
}

var positional = map[column]int{
	colName:    0,
	colCompany: 1,
	colPhone:   2,
	colSegment: 3,
	colLines:   4,
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ImportFS decodes every file in fsys matching pattern, which may use **
// for recursive matching. Files are decoded concurrently and their leads
// are returned in sorted path order.
func ImportFS(ctx context.Context, fsys iofs.FS, pattern string) ([]sdr.Lead, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, sdr.ErrValidation)
	}
	var paths []string
	err := doublestar.GlobWalk(fsys, pattern, func(path string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("match pattern: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %q: %w", pattern, sdr.ErrValidation)
	}
	slices.Sort(paths)

	results := make([][]sdr.Lead, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			leads, err := decodeFile(fsys, path)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.FromSlash(path), err)
			}
			results[i] = leads
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}

func decodeFile(fsys iofs.FS, path string) ([]sdr.Lead, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Import resolves pattern against the working directory and imports the
// matching files. See [ImportFS].
func Import(ctx context.Context, pattern string) ([]sdr.Lead, error) {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return ImportFS(ctx, os.DirFS(filepath.FromSlash(base)), rest)
}
