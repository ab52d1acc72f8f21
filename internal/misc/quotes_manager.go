package misc

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"

	log "github.com/sirupsen/logrus"
)

//go:embed data/quotes.csv
var embeddedQuotes string

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

type QuotesManager struct {
	Quotes       []*Quote
	GenresQuotes map[string][]*Quote
}

// NewEmbeddedQuotesManager loads the quotes shipped with the binary.
func NewEmbeddedQuotesManager() (*QuotesManager, error) {
	return NewQuoteManager(csv.NewReader(strings.NewReader(embeddedQuotes)))
}

func NewQuoteManager(quotesCsvReader *csv.Reader) (*QuotesManager, error) {
	qm := &QuotesManager{
		GenresQuotes: make(map[string][]*Quote),
	}

	quotesCsvReader.Comma = ';'
	for {
		record, err := quotesCsvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		// QUOTE;AUTHOR;GENRE
		if len(record) != 3 {
			return nil, fmt.Errorf("record [%s] does not have 3 elements", record)
		}

		quote := &Quote{
			Text:   record[0],
			Author: record[1],
			Genre:  strings.ToLower(record[2]),
		}
		qm.Quotes = append(qm.Quotes, quote)
		qm.GenresQuotes[quote.Genre] = append(qm.GenresQuotes[quote.Genre], quote)
	}

	if len(qm.Quotes) == 0 {
		return nil, errors.New("no quotes found")
	}

	log.Debugf("quotes CSV read %d quotes", len(qm.Quotes))

	return qm, nil
}

func (qm *QuotesManager) RandomQuote() *Quote {
	return qm.Quotes[rand.Intn(len(qm.Quotes))]
}

// RandomGenreQuote returns nil when the genre has no quotes.
func (qm *QuotesManager) RandomGenreQuote(genre string) *Quote {
	quotes := qm.GenresQuotes[strings.ToLower(genre)]
	if len(quotes) == 0 {
		return nil
	}
	return quotes[rand.Intn(len(quotes))]
}
