// Package importer downloads translations from bolls.life and stores them in
// the local database.
package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"verse-rotator/internal/api"
	"verse-rotator/internal/bible"
	"verse-rotator/internal/cache"
)

// Saver persists an imported translation.
type Saver interface {
	SaveTranslation(ctx context.Context, t bible.Translation, verses []bible.VerseRecord) error
}

// Language is the catalogue language offered for import.
const Language = "English"

type Importer struct {
	client  *api.Client
	archive *cache.Archive
	store   Saver
	log     *zap.Logger
}

func New(client *api.Client, archive *cache.Archive, store Saver, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{client: client, archive: archive, store: store, log: log}
}

// Available lists the translations the catalogue offers.
func (im *Importer) Available(ctx context.Context) ([]api.Translation, error) {
	ts, err := im.client.GetTranslations(ctx, Language)
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return ts, nil
}

// Import fetches one translation (reusing a cached archive) and saves it.
// It returns the number of verses stored.
func (im *Importer) Import(ctx context.Context, id string) (int, error) {
	name := id
	if ts, err := im.Available(ctx); err == nil {
		for _, t := range ts {
			if t.ShortName == id {
				name = t.FullName
				break
			}
		}
	} else {
		im.log.Warn("catalogue unavailable, importing without a display name", zap.String("translation", id), zap.Error(err))
	}

	if !im.archive.IsCached(id) {
		im.log.Info("downloading translation", zap.String("translation", id))
		if err := im.archive.Download(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to download %s: %w", id, err)
		}
	}
	raw, err := im.archive.Load(id)
	if err != nil {
		return 0, err
	}

	books := im.bookNames(ctx, id)
	verses := make([]bible.VerseRecord, 0, len(raw))
	skipped := 0
	for _, v := range raw {
		key, ok := books[v.Book]
		if !ok || v.Chapter < 1 || v.Verse < 1 {
			skipped++
			continue
		}
		verses = append(verses, bible.VerseRecord{Book: key, Chapter: v.Chapter, Verse: v.Verse, Text: v.Text})
	}
	if len(verses) == 0 {
		return 0, fmt.Errorf("translation %s has no usable verses", id)
	}
	if skipped > 0 {
		im.log.Warn("skipped verses with unknown books", zap.String("translation", id), zap.Int("skipped", skipped))
	}

	if err := im.store.SaveTranslation(ctx, bible.Translation{ID: id, Name: name}, verses); err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", id, err)
	}
	im.log.Info("translation imported", zap.String("translation", id), zap.Int("verses", len(verses)))
	return len(verses), nil
}

// ImportAll imports several translations, two at a time. The first error
// cancels the rest.
func (im *Importer) ImportAll(ctx context.Context, ids []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for _, id := range ids {
		g.Go(func() error {
			_, err := im.Import(gctx, id)
			return err
		})
	}
	return g.Wait()
}

// bookNames maps catalogue book ids to book keys. The canonical numbering is
// the fallback; the catalogue's own names win where they resolve.
func (im *Importer) bookNames(ctx context.Context, id string) map[int]string {
	out := make(map[int]string, len(bible.Books))
	for _, b := range bible.Books {
		out[b.Number] = b.Key()
	}

	books, err := im.client.GetBooks(ctx, id)
	if err != nil {
		im.log.Debug("book list unavailable, using canonical numbering", zap.String("translation", id), zap.Error(err))
		return out
	}
	for _, b := range books {
		if book, ok := bible.LookupBook(b.Name); ok {
			out[b.BookID] = book.Key()
		}
	}
	return out
}
