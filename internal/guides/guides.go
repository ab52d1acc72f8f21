package guides

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed content/*.txt
var contentFS embed.FS

var ErrGuideNotFound = errors.New("guide not found")

type Guide struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Weeks    int    `json:"weeks,omitempty"`
	Filename string `json:"filename"`
	Content  string `json:"content,omitempty"`
}

var catalog = []Guide{
	{
		Slug:     "weight-loss",
		Title:    "Weight Loss Program",
		Summary:  "Lose weight steadily with a moderate calorie deficit, cardio and strength training.",
		Weeks:    12,
		Filename: "Weight-Loss-Guide-BitFit-Pro.txt",
	},
	{
		Slug:     "muscle-build",
		Title:    "Muscle Building Program",
		Summary:  "Progressive overload and compound lifts for lean muscle and strength.",
		Weeks:    16,
		Filename: "Muscle-Building-Guide-BitFit-Pro.txt",
	},
	{
		Slug:     "stress-relief",
		Title:    "Stress Relief Program",
		Summary:  "Mindful movement and breathing techniques to lower everyday stress.",
		Weeks:    8,
		Filename: "Stress-Relief-Program-BitFit-Pro.txt",
	},
	{
		Slug:     "exercises-anywhere",
		Title:    "Exercises Anywhere",
		Summary:  "Bodyweight routines that need no equipment and very little space.",
		Filename: "Exercises-Anywhere-Guide-BitFit-Pro.txt",
	},
}

// Library holds the guides with their text loaded.
type Library struct {
	guides map[string]Guide
}

func NewLibrary() (*Library, error) {
	lib := &Library{
		guides: make(map[string]Guide, len(catalog)),
	}
	for _, g := range catalog {
		content, err := contentFS.ReadFile(path.Join("content", g.Slug+".txt"))
		if err != nil {
			return nil, fmt.Errorf("read guide %s: %w", g.Slug, err)
		}
		g.Content = strings.TrimSpace(string(content)) + "\n"
		lib.guides[g.Slug] = g
	}
	return lib, nil
}

// List returns the guides without their content, ordered by slug.
func (l *Library) List() []Guide {
	list := make([]Guide, 0, len(l.guides))
	for _, g := range l.guides {
		g.Content = ""
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Slug < list[j].Slug
	})
	return list
}

func (l *Library) Get(slug string) (Guide, error) {
	g, ok := l.guides[strings.ToLower(slug)]
	if !ok {
		return Guide{}, ErrGuideNotFound
	}
	return g, nil
}
