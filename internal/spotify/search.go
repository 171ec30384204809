package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

const searchLimit = 10

func (c *Client) Search(ctx context.Context, creds Credentials, query string) ([]Track, *Credentials, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	sp, refreshed, err := c.clientFor(ctx, creds)
	if err != nil {
		return nil, nil, err
	}

	results, err := sp.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	if err != nil {
		return nil, refreshed, fmt.Errorf("search: %w", err)
	}

	tracks := make([]Track, 0, searchLimit)
	if results.Tracks != nil {
		for _, entry := range results.Tracks.Tracks {
			tracks = append(tracks, Track{
				Uri:     string(entry.URI),
				Name:    entry.Name,
				Artists: joinArtists(entry.Artists),
				Image:   smallestImage(entry.Album.Images),
			})
		}
	}

	return tracks, refreshed, nil
}
