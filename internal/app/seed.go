package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"provisioning-audit/internal/domain"
)

type demoEntity struct {
	id, group, neType string
}

var (
	demoEntities = []demoEntity{
		{"DTH01", "DTH", "HLR"},
		{"MSC4", "MSC", "MSC"},
		{"HSS02", "IMS", "HSS"},
	}
	demoActions  = []string{"ALTA", "BAJA", "SUSPENSION", "REACTIVACION", "CAMBIO_PLAN"}
	demoStatuses = []string{"OK", "OK", "OK", "ERROR", "PENDIENTE"}
)

// seedColumns are the columns SeedDevStore fills; the rest stay NULL.
var seedColumns = []string{
	"pri_cellular_number", "pri_sim_msisdn", "pri_sim_imsi", "pri_action", "pri_status",
	"pri_action_date", "pri_system_date", "pri_ne_type", "pri_ne_id", "pri_ne_group",
	"pri_source_application", "pri_error_code", "pri_message_error", "pri_user_sender",
}

// SeedDevStore fills an empty local store with deterministic demo records
// spread over the 30 days before now. It returns the number of records
// written, zero when the table already has data.
func SeedDevStore(ctx context.Context, store *sql.DB, now time.Time) (int, error) {
	var existing int
	if err := store.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+domain.ProvisioningTable).Scan(&existing); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(seedColumns)), ", ")
	query := "INSERT INTO " + domain.ProvisioningTable +
		" (" + strings.Join(seedColumns, ", ") + ") VALUES (" + marks + ")"

	tx, err := store.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	base := now.Truncate(time.Hour)
	n := 0
	for i := range 240 {
		e := demoEntities[i%len(demoEntities)]
		action := demoActions[i%len(demoActions)]
		status := demoStatuses[(i/len(demoActions))%len(demoStatuses)]
		at := base.Add(-time.Duration(i*3) * time.Hour)

		var errCode, errMsg any
		if status == "ERROR" {
			errCode, errMsg = 100+i%7, "element rejected the command"
		}
		msisdn := fmt.Sprintf("099%07d", 1000000+i*37)
		if _, err := stmt.ExecContext(ctx,
			msisdn,
			msisdn,
			fmt.Sprintf("748010%09d", 100000000+i),
			action,
			status,
			at.Format(domain.DateTimeLayout),
			at.Add(2*time.Second).Format(domain.DateTimeLayout),
			e.neType,
			e.id,
			e.group,
			"CRM",
			errCode,
			errMsg,
			"provisioner",
		); err != nil {
			return 0, fmt.Errorf("insert demo record: %w", err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return n, nil
}
