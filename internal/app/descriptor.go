package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/metrics"
)

// Generator hands out connection descriptors for new sessions.
type Generator struct {
	Store   *Store
	Address string
	TTL     time.Duration
	Metrics *metrics.Metrics
}

func (g *Generator) NewDescriptor() domain.Descriptor {
	sess := g.Store.Create()
	g.Metrics.SessionCreated()
	d := g.Describe(sess)
	log.Info().Str("module", "app.descriptor").Str("token", string(d.Token)).Str("address", d.Address).Msg("issued descriptor")
	return d
}

func (g *Generator) Describe(sess domain.Session) domain.Descriptor {
	return domain.Descriptor{
		Token:     sess.Token,
		Address:   g.Address,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.CreatedAt.Add(g.TTL),
	}
}
