package emails

import (
	"bufio"
	"io"
	"strings"
	"testing"
)

const (
	Cardinality       = 100000
	CommonCardinality = Cardinality / 10
)

func initDataSource(common []byte) *bufio.Reader {
	// get an io pipe to read results
	i, o := io.Pipe()
	b := bufio.NewReader(i)
	go func() {
		matchables := Mix(common, Cardinality-CommonCardinality)
		for matchable := range matchables {
			// each matchable already ends with \r\n (see prefix)
			if _, err := o.Write(matchable); err != nil {
				return
			}
		}
	}()
	return b
}

func TestGenerate(t *testing.T) {
	// generate common data
	common := Common(CommonCardinality)
	r := initDataSource(common)

	// read Cardinality matchables from r
	// and check that each carries the prefix
	for i := 0; i < Cardinality; i++ {
		line, _, err := r.ReadLine()
		if err != nil {
			t.Fatalf("not error expected, got error %v", err)
		}
		if !strings.HasPrefix(string(line), Prefix) {
			t.Fatalf("expected prefix %s, got %s", Prefix, string(line[:1]))
		}
	}
}
