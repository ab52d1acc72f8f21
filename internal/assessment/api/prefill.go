package api

import (
	"context"
	"strconv"
	"strings"

	"github.com/bitfitpro/bitfit/internal/auth"

	log "github.com/sirupsen/logrus"
)

// prefillFields points at the request values that may come from the profile.
// Nil pointers are skipped.
type prefillFields struct {
	age    *float64
	height *float64
	weight *float64
}

func (f prefillFields) missing() bool {
	return (f.age != nil && *f.age == 0) ||
		(f.height != nil && *f.height == 0) ||
		(f.weight != nil && *f.weight == 0)
}

// prefill fills zero age, height and weight from the caller's profile.
// Anonymous callers and profile lookup failures leave the input untouched.
func (handler *Handler) prefill(ctx context.Context, fields prefillFields) {
	if handler.profiles == nil || !fields.missing() {
		return
	}
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return
	}

	p, err := handler.profiles.Get(ctx, session.IdentityID)
	if err != nil {
		log.Warnf("prefill assessment input for %s: %s", session.IdentityID, err)
		return
	}

	fill(fields.age, p.Attributes.Age)
	fill(fields.height, p.Attributes.Height)
	fill(fields.weight, p.Attributes.Weight)
}

func fill(dst *float64, attr string) {
	if dst == nil || *dst != 0 {
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(attr), 64)
	if err != nil || v <= 0 {
		return
	}
	*dst = v
}
