package models

import (
	"context"
	"fmt"
	"sync"

	"github.com/mibitech/mibitech-site/pkg/datafetch"
)

const (
	ContactsEndpoint    = "/api/contacts/"
	SocialMediaEndpoint = "/api/social-media/"
)

// Company loads contact channels and social profiles. Each concern has its
// own Fetcher so their loading/error state stays separate.
type Company struct {
	contactsFetcher *datafetch.Fetcher
	socialFetcher   *datafetch.Fetcher

	mu          sync.RWMutex
	contacts    []Contact
	socialMedia []SocialMedia
}

func NewCompany(contacts, social *datafetch.Fetcher) *Company {
	return &Company{contactsFetcher: contacts, socialFetcher: social}
}

func (c *Company) Contacts(ctx context.Context) ([]Contact, error) {
	raw, err := c.contactsFetcher.FetchData(ctx, ContactsEndpoint)
	if err != nil {
		return nil, err
	}
	out, err := datafetch.Decode[[]Contact](raw)
	if err != nil {
		return nil, fmt.Errorf("contacts: %w", err)
	}
	c.mu.Lock()
	c.contacts = out
	c.mu.Unlock()
	return out, nil
}

func (c *Company) SocialMedia(ctx context.Context) ([]SocialMedia, error) {
	raw, err := c.socialFetcher.FetchData(ctx, SocialMediaEndpoint)
	if err != nil {
		return nil, err
	}
	out, err := datafetch.Decode[[]SocialMedia](raw)
	if err != nil {
		return nil, fmt.Errorf("social media: %w", err)
	}
	c.mu.Lock()
	c.socialMedia = out
	c.mu.Unlock()
	return out, nil
}

// ContactByID searches the last loaded contacts.
func (c *Company) ContactByID(id int) (Contact, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ct := range c.contacts {
		if ct.ID == id {
			return ct, true
		}
	}
	return Contact{}, false
}

// SocialMediaByID searches the last loaded profiles.
func (c *Company) SocialMediaByID(id int) (SocialMedia, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.socialMedia {
		if s.ID == id {
			return s, true
		}
	}
	return SocialMedia{}, false
}

// Errors reports the last error of each fetcher.
func (c *Company) Errors() (contacts, social string) {
	return c.contactsFetcher.LastError(), c.socialFetcher.LastError()
}
