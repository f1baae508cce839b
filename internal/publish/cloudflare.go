package publish

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog/log"
)

// dnsAPI is the slice of the Cloudflare client the publisher uses; tests
// substitute a fake.
type dnsAPI interface {
	ListDNSRecords(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.ListDNSRecordsParams) ([]cloudflare.DNSRecord, *cloudflare.ResultInfo, error)
	CreateDNSRecord(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.CreateDNSRecordParams) (cloudflare.DNSRecord, error)
	UpdateDNSRecord(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.UpdateDNSRecordParams) (cloudflare.DNSRecord, error)
}

// Cloudflare publishes records into a single zone, find-by-name then
// edit-or-create, exposed to the pipeline as one idempotent upsert.
type Cloudflare struct {
	api    dnsAPI
	zoneID string

	// newBackOff overrides the retry policy; nil means the default
	// exponential policy with a handful of attempts.
	newBackOff func() backoff.BackOff
}

// NewCloudflare builds a publisher from an API token and zone identifier.
func NewCloudflare(token, zoneID string) (*Cloudflare, error) {
	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("cloudflare client: %w", err)
	}
	return &Cloudflare{api: api, zoneID: zoneID}, nil
}

// Upsert creates or updates the record. Transient API failures are retried
// a few times before the error is surfaced to the caller.
func (c *Cloudflare) Upsert(ctx context.Context, rec Record) (string, error) {
	var id string
	op := func() error {
		var err error
		id, err = c.upsert(ctx, rec)
		return err
	}
	var policy backoff.BackOff
	if c.newBackOff != nil {
		policy = c.newBackOff()
	} else {
		policy = backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Cloudflare) upsert(ctx context.Context, rec Record) (string, error) {
	rc := cloudflare.ZoneIdentifier(c.zoneID)

	existing, _, err := c.api.ListDNSRecords(ctx, rc, cloudflare.ListDNSRecordsParams{Name: rec.Name})
	if err != nil {
		return "", fmt.Errorf("list dns records for %s: %w", rec.Name, err)
	}

	if len(existing) > 0 {
		cur := existing[0]
		if cur.Type == rec.Type && cur.Content == rec.Content && cur.TTL == rec.TTL {
			log.Info().
				Str("record", rec.Name).
				Str("content", rec.Content).
				Msg("DNS record already up to date")
			return cur.ID, nil
		}
		updated, err := c.api.UpdateDNSRecord(ctx, rc, cloudflare.UpdateDNSRecordParams{
			ID:      cur.ID,
			Type:    rec.Type,
			Name:    rec.Name,
			Content: rec.Content,
			TTL:     rec.TTL,
			Proxied: cloudflare.BoolPtr(false),
		})
		if err != nil {
			return "", fmt.Errorf("update dns record %s: %w", rec.Name, err)
		}
		log.Info().
			Str("record", rec.Name).
			Str("type", rec.Type).
			Str("content", rec.Content).
			Msg("Updated DNS record")
		return updated.ID, nil
	}

	created, err := c.api.CreateDNSRecord(ctx, rc, cloudflare.CreateDNSRecordParams{
		Type:    rec.Type,
		Name:    rec.Name,
		Content: rec.Content,
		TTL:     rec.TTL,
		Proxied: cloudflare.BoolPtr(false),
	})
	if err != nil {
		return "", fmt.Errorf("create dns record %s: %w", rec.Name, err)
	}
	log.Info().
		Str("record", rec.Name).
		Str("type", rec.Type).
		Str("content", rec.Content).
		Msg("Created DNS record")
	return created.ID, nil
}
