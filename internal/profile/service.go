package profile

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=profile_test

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// cached copies outlive a typical store outage
const cacheExpireSeconds = 24 * 60 * 60

type profileRepo interface {
	Get(ctx context.Context, identityID string) (*Profile, error)
	Upsert(ctx context.Context, identityID string, attrs Attributes) error
}

// Service reads and writes profiles through the store and keeps a local copy
// that is served when the store cannot be reached.
type Service struct {
	repo  profileRepo
	cache *freecache.Cache
}

func NewService(repo profileRepo, cacheSizeMB int) *Service {
	if cacheSizeMB <= 0 {
		cacheSizeMB = 1
	}
	return &Service{
		repo:  repo,
		cache: freecache.NewCache(cacheSizeMB * 1024 * 1024),
	}
}

// Get reads the profile from the store. Edits that only reached the local
// copy are applied over the stored row and written back before it is returned.
func (s *Service) Get(ctx context.Context, identityID string) (*Profile, error) {
	p, err := s.repo.Get(ctx, identityID)
	switch {
	case err == nil:
		normalize(p)
		if pending, ok := s.cached(identityID); ok && !pending.Synced {
			applyEdits(p, pending.Attributes)
			return s.save(ctx, p), nil
		}
		s.store(p)
		return p, nil
	case errors.Is(err, ErrProfileNotFound):
		p = defaultProfile(identityID)
		p.Synced = true
		return p, nil
	}

	log.Errorf("profile service, get %s from store: %s", identityID, err)
	if cached, ok := s.cached(identityID); ok {
		cached.Synced = false
		return cached, nil
	}

	p = defaultProfile(identityID)
	p.Synced = false
	return p, nil
}

// Update saves the local copy first and then the store. A failing store is
// tolerated and reported through Synced.
func (s *Service) Update(ctx context.Context, identityID string, attrs Attributes) (*Profile, error) {
	if err := attrs.validate(); err != nil {
		return nil, err
	}

	p, ok := s.cached(identityID)
	if !ok {
		if current, err := s.repo.Get(ctx, identityID); err == nil {
			p = current
		} else {
			p = defaultProfile(identityID)
		}
	}
	applyEdits(p, attrs)

	p.Synced = false
	s.store(p)

	return s.save(ctx, p), nil
}

// save writes p to the store and refreshes the local copy with the outcome.
func (s *Service) save(ctx context.Context, p *Profile) *Profile {
	if err := s.repo.Upsert(ctx, p.IdentityID, p.Attributes); err != nil {
		log.Errorf("profile service, update %s in store: %s", p.IdentityID, err)
		p.Synced = false
		s.store(p)
		return p
	}

	p.Synced = true
	s.store(p)
	return p
}

// applyEdits replaces the editable attributes, e-mail and membership stay.
func applyEdits(p *Profile, attrs Attributes) {
	email, membership := p.Attributes.Email, p.Attributes.MembershipType
	p.Attributes = attrs
	p.Attributes.Email = email
	p.Attributes.MembershipType = membership
	normalize(p)
}

func normalize(p *Profile) {
	if p.Attributes.MembershipType == "" {
		p.Attributes.MembershipType = MembershipFree
	}
}

func (s *Service) store(p *Profile) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Errorf("profile service, marshal %s: %s", p.IdentityID, err)
		return
	}
	if err := s.cache.Set([]byte(p.IdentityID), data, cacheExpireSeconds); err != nil {
		log.Errorf("profile service, cache %s: %s", p.IdentityID, err)
	}
}

func (s *Service) cached(identityID string) (*Profile, bool) {
	data, err := s.cache.Get([]byte(identityID))
	if err != nil {
		return nil, false
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		log.Errorf("profile service, unmarshal cached %s: %s", identityID, err)
		return nil, false
	}
	return &p, true
}
