package store

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// ApplyLifecycleRules installs age-based expiration on the archive and error
// prefixes of the source bucket so processed mail does not accumulate
// forever. Incoming is deliberately excluded: an unexpired incoming object
// is work that has not finished.
func (s *MinioStore) ApplyLifecycleRules(ctx context.Context, bucket string, days int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:         "expire-archived-mail",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: ArchivePrefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
		},
		{
			ID:         "expire-error-mail",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: ErrorPrefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(days)},
		},
	}
	if err := s.client.SetBucketLifecycle(ctx, bucket, cfg); err != nil {
		return fmt.Errorf("set lifecycle on %s: %w", bucket, err)
	}
	return nil
}
