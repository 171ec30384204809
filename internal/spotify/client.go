package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// RefreshLead is how close to expiry a bearer token may get before it is
// refreshed ahead of a provider call. The in-room web player uses the
// same lead, so the value lives in exactly one place.
const RefreshLead = 30 * time.Second

// Credentials is the opaque token bundle pushed by the room's music host.
type Credentials struct {
	ClientId     string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

type Track struct {
	Uri     string `json:"uri"`
	Name    string `json:"name"`
	Artists string `json:"artists"`
	Image   string `json:"image"`
}

type PlaybackInfo struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMs int    `json:"progress_ms"`
	DurationMs int    `json:"duration_ms"`
	Track      *Track `json:"track"`
}

// Client talks to the external music provider on behalf of a room host.
// Every call is bounded by timeout so a slow upstream cannot stall a room.
type Client struct {
	clientSecret string
	timeout      time.Duration
}

func NewClient(clientSecret string, timeout time.Duration) *Client {
	return &Client{
		clientSecret: clientSecret,
		timeout:      timeout,
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// freshen returns a usable oauth2 token for the credentials, refreshing
// it when expiry is within RefreshLead. The second result is non-nil
// when the caller must store the refreshed bundle back.
func (c *Client) freshen(ctx context.Context, creds Credentials) (*oauth2.Token, *Credentials, error) {
	token := &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.Expiry,
		TokenType:    "Bearer",
	}

	if time.Until(creds.Expiry) > RefreshLead {
		return token, nil, nil
	}

	cfg := &oauth2.Config{
		ClientID:     creds.ClientId,
		ClientSecret: c.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}

	// TokenSource only refreshes an expired token, so hand it one.
	expired := *token
	expired.Expiry = time.Now().Add(-time.Minute)
	newToken, err := cfg.TokenSource(ctx, &expired).Token()
	if err != nil {
		return nil, nil, fmt.Errorf("refresh token: %w", err)
	}
	if newToken.RefreshToken == "" {
		newToken.RefreshToken = creds.RefreshToken
	}

	refreshed := Credentials{
		ClientId:     creds.ClientId,
		AccessToken:  newToken.AccessToken,
		RefreshToken: newToken.RefreshToken,
		Expiry:       newToken.Expiry,
	}

	return newToken, &refreshed, nil
}

func (c *Client) clientFor(ctx context.Context, creds Credentials) (*spotify.Client, *Credentials, error) {
	token, refreshed, err := c.freshen(ctx, creds)
	if err != nil {
		return nil, nil, err
	}

	authenticator := spotifyauth.New(
		spotifyauth.WithClientID(creds.ClientId),
		spotifyauth.WithClientSecret(c.clientSecret),
	)

	return spotify.New(authenticator.Client(ctx, token)), refreshed, nil
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}

	return strings.Join(names, ", ")
}

func smallestImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}

	return images[len(images)-1].URL
}
