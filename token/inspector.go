// Package token inspects bearer tokens client-side. The inspector performs no
// signature verification: it is advisory only, used to schedule proactive
// refresh, never to authorize access.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jellydator/ttlcache/v3"

	"github.com/BKH516/sahatu-admin-console/audit"
	"github.com/BKH516/sahatu-admin-console/domain"
	"github.com/BKH516/sahatu-admin-console/internal/crypto"
)

// defaultClaimsTTL bounds cache residency for tokens without an expiry claim.
const defaultClaimsTTL = 5 * time.Minute

// Inspector decodes token payloads best-effort. Decoded claims are cached by
// token hash so repeated checks from the refresh and validity timers do not
// re-parse on every tick.
type Inspector struct {
	parser  *jwt.Parser
	cache   *ttlcache.Cache[string, jwt.MapClaims]
	auditor *audit.Recorder
	now     func() time.Time
}

// NewInspector creates an Inspector. The recorder receives observability
// events such as tokens carrying no expiry claim; it may be nil.
func NewInspector(auditor *audit.Recorder) *Inspector {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, jwt.MapClaims](defaultClaimsTTL),
		ttlcache.WithDisableTouchOnHit[string, jwt.MapClaims](),
	)
	go cache.Start()

	return &Inspector{
		parser:  jwt.NewParser(jwt.WithPaddingAllowed()),
		cache:   cache,
		auditor: auditor,
		now:     time.Now,
	}
}

// Decode parses the token's claims segment without verifying the signature.
// It tolerates both padded and URL-safe base64 variants and returns nil on
// malformed input. It never panics.
func (i *Inspector) Decode(tokenValue string) jwt.MapClaims {
	if tokenValue == "" {
		return nil
	}

	key := crypto.HashToken(tokenValue)
	if item := i.cache.Get(key); item != nil {
		return item.Value()
	}

	claims := jwt.MapClaims{}
	if _, _, err := i.parser.ParseUnverified(tokenValue, claims); err != nil {
		return nil
	}

	ttl := defaultClaimsTTL
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if remaining := time.Until(exp.Time); remaining > 0 {
			ttl = remaining
		}
	}
	i.cache.Set(key, claims, ttl)

	return claims
}

// ExpiresAt returns the token's expiry and whether one is present.
func (i *Inspector) ExpiresAt(tokenValue string) (time.Time, bool) {
	claims := i.Decode(tokenValue)
	if claims == nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// IsExpired reports whether the token's exp claim is at or before now.
// A token with no determinable expiry is never reported expired; that
// condition is recorded as a distinct audit event instead.
func (i *Inspector) IsExpired(tokenValue string) bool {
	exp, ok := i.ExpiresAt(tokenValue)
	if !ok {
		if i.auditor != nil {
			i.auditor.Event(domain.EventTokenWithoutExpiry, "token carries no expiry claim")
		}
		return false
	}
	return !i.now().Before(exp)
}

// TimeRemaining returns the token's remaining lifetime, never negative.
// Zero means expired or not determinable.
func (i *Inspector) TimeRemaining(tokenValue string) time.Duration {
	exp, ok := i.ExpiresAt(tokenValue)
	if !ok {
		return 0
	}
	if remaining := exp.Sub(i.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Close stops the claims cache cleanup goroutine.
func (i *Inspector) Close() {
	i.cache.Stop()
}
