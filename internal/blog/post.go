package blog

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	wordsPerMinute   = 200
	maxExcerptLength = 160
)

var (
	ErrPostNotFound      = errors.New("blog post not found")
	ErrPostFieldsMissing = errors.New("blog post title, content or category empty")
)

type Post struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Excerpt         string    `json:"excerpt"`
	Content         string    `json:"content"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	ReadTimeMinutes int       `json:"readTimeMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	Claps           int       `json:"claps"` // basically post likes
}

func (p *Post) validate() error {
	if strings.TrimSpace(p.Title) == "" ||
		strings.TrimSpace(p.Content) == "" ||
		strings.TrimSpace(p.Category) == "" {
		return ErrPostFieldsMissing
	}
	return nil
}

// fillDerived sets the excerpt and read time when the author left them out.
func (p *Post) fillDerived() {
	if p.Excerpt == "" {
		p.Excerpt = excerpt(p.Content)
	}
	if p.ReadTimeMinutes <= 0 {
		p.ReadTimeMinutes = readTime(p.Content)
	}
}

func readTime(content string) int {
	words := len(strings.Fields(content))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

func excerpt(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= maxExcerptLength {
		return content
	}
	runes := []rune(content)[:maxExcerptLength]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
