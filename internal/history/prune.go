package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// RetentionPolicy controls which finished builds Prune removes. A build is
// kept when it is still running, among the KeepLast newest finished builds,
// or younger than KeepDays. Zero values disable the respective protection.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
	DryRun   bool
}

// Prune removes finished builds that fall outside the policy and returns the
// removed records. With DryRun set nothing is deleted; the return value shows
// what would go.
func Prune(ctx context.Context, store *Store, policy RetentionPolicy) ([]BuildRecord, error) {
	builds, err := store.ListBuilds(ctx, 0)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if policy.KeepDays > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -policy.KeepDays)
	}

	var removed []BuildRecord
	finished := 0
	for _, b := range builds {
		if b.Status == BuildRunning {
			continue
		}
		finished++
		if finished <= policy.KeepLast {
			continue
		}
		if policy.KeepDays > 0 {
			created, err := time.Parse(time.RFC3339, b.CreatedAt)
			if err == nil && created.After(cutoff) {
				continue
			}
		}
		removed = append(removed, b)
	}

	if policy.DryRun {
		return removed, nil
	}

	for _, b := range removed {
		// Events go with the build through the cascade.
		if _, err := store.db.ExecContext(ctx, `DELETE FROM builds WHERE build_id=?`, b.BuildID); err != nil {
			return removed, fmt.Errorf("delete build %s: %w", b.BuildID, err)
		}
	}
	if len(removed) > 0 {
		log.Info().Int("builds_removed", len(removed)).Msg("history pruned")
	}
	return removed, nil
}
