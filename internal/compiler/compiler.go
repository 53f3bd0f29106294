// Package compiler turns a list of reference prompts into one plain-text
// document of verse text.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"verse-rotator/internal/bible"
	"verse-rotator/internal/reference"
	"verse-rotator/internal/render"
	"verse-rotator/internal/settings"
)

const (
	separator   = "\n\n---\n\n"
	failureBody = "(Could not retrieve text for this prompt. Check reference or translation.)\n"
)

var (
	ErrNoPrompts        = errors.New("please enter reference prompts")
	ErrNoTranslation    = errors.New("please select a translation")
	ErrEmptyTranslation = errors.New("translation is empty or failed to load")
)

// Result is a compiled document and its tally.
type Result struct {
	Output     string `json:"output"`
	Prompts    int    `json:"prompts"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
}

// Summary is the one-line report shown after compiling.
func (r Result) Summary() string {
	return fmt.Sprintf("Processed %d prompts. %d successful, %d failed/empty.", r.Prompts, r.Successful, r.Failed)
}

// SplitPrompts returns the non-blank trimmed lines of text.
func SplitPrompts(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Compile resolves every prompt against verses. Each prompt becomes one
// "== title ==" block; prompts that yield no text get a failure block.
func Compile(prompts []string, verses []bible.VerseRecord) Result {
	index := make(map[string]bible.VerseRecord, len(verses))
	lastVerse := map[string]int{}
	for _, v := range verses {
		index[v.ID()] = v
		key := chapterKey(v.Book, v.Chapter)
		lastVerse[key] = max(lastVerse[key], v.Verse)
	}

	res := Result{Prompts: len(prompts)}
	var sb strings.Builder
	for _, prompt := range prompts {
		var (
			titles []string
			texts  []string
		)
		for _, ex := range reference.Extract(prompt) {
			r := ex.Ref
			title := r.Reference
			start, end := r.StartVerse, r.EndVerse
			last, ok := lastVerse[chapterKey(r.Book, r.Chapter)]
			if start == 1 && end == 1 && reference.IsChapterOnly(ex.Source) {
				title = fmt.Sprintf("%s Chapter %d", bible.DisplayName(r.Book), r.Chapter)
				end = last
			}
			titles = append(titles, title)
			if !ok {
				continue
			}
			end = min(end, last)

			for n := start; n <= end; n++ {
				v, ok := index[bible.VerseRecord{Book: r.Book, Chapter: r.Chapter, Verse: n}.ID()]
				if !ok {
					continue
				}
				if text := render.PlainText(v.Text); text != "" {
					texts = append(texts, text)
				}
			}
		}

		if sb.Len() > 0 {
			sb.WriteString(separator)
		}
		if len(texts) == 0 {
			fmt.Fprintf(&sb, "== %s (No text found/loaded) ==\n\n%s", prompt, failureBody)
			res.Failed++
			continue
		}
		fmt.Fprintf(&sb, "== %s ==\n\n%s", strings.Join(titles, "; "), strings.Join(texts, "\n"))
		res.Successful++
	}
	res.Output = strings.TrimSpace(sb.String())
	return res
}

func chapterKey(book string, chapter int) string {
	return fmt.Sprintf("%s-%d", book, chapter)
}

// VerseLoader loads a translation's verses.
type VerseLoader interface {
	Get(ctx context.Context, id string) ([]bible.VerseRecord, error)
}

// Compiler runs Compile against a chosen translation and remembers the
// choice.
type Compiler struct {
	verses VerseLoader
	prefs  *settings.Store
	log    *zap.Logger
}

func New(verses VerseLoader, prefs *settings.Store, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compiler{verses: verses, prefs: prefs, log: log}
}

// LastTranslation is the translation used by the previous run, if any.
func (c *Compiler) LastTranslation() string {
	if c.prefs == nil {
		return ""
	}
	return c.prefs.GetOr(settings.KeyCompilerSource, "")
}

// Run compiles the prompts in text against translation.
func (c *Compiler) Run(ctx context.Context, translation, text string) (Result, error) {
	prompts := SplitPrompts(text)
	if len(prompts) == 0 {
		return Result{}, ErrNoPrompts
	}
	if translation == "" {
		return Result{}, ErrNoTranslation
	}
	if c.prefs != nil {
		if err := c.prefs.Set(settings.KeyCompilerSource, translation); err != nil {
			c.log.Warn("failed to remember compiler translation", zap.Error(err))
		}
	}

	verses, err := c.verses.Get(ctx, translation)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrEmptyTranslation, bible.TrimExt(translation), err)
	}
	if len(verses) == 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrEmptyTranslation, bible.TrimExt(translation))
	}

	res := Compile(prompts, verses)
	c.log.Info("compiled prompts",
		zap.String("translation", translation),
		zap.Int("successful", res.Successful),
		zap.Int("failed", res.Failed))
	return res, nil
}
