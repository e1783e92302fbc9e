package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/finchly/payguard/approval"
	"github.com/finchly/payguard/db"
	"github.com/finchly/payguard/internal/pathutil"
)

// buildWorkflow wires the approval ledger, permission matrix and audit sink
// from config. The returned cleanup closes the store and sink.
func buildWorkflow(log *slog.Logger, notifier approval.Notifier) (*approval.Workflow, func(), error) {
	dsn, err := db.ResolveSQLiteDSN(viperDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("resolve dsn: %w", err)
	}
	store, err := approval.NewSQLiteStore(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open approval store: %w", err)
	}

	sink := auditSinkFromViper(log)
	wf := approval.NewWorkflow(store, matrixFromViper(), notifier, sink, log)

	cleanup := func() {
		_ = store.Close()
		if closer, ok := sink.(*approval.JSONLAuditSink); ok {
			_ = closer.Close()
		}
	}
	return wf, cleanup, nil
}

func viperDSN() string {
	if dsn := strings.TrimSpace(viper.GetString("db.dsn")); dsn != "" {
		return dsn
	}
	return db.DefaultConfig().DSN
}

func auditSinkFromViper(log *slog.Logger) approval.AuditSink {
	path := strings.TrimSpace(viper.GetString("audit.jsonl_path"))
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return approval.NopAuditSink{}
		}
		path = filepath.Join(home, ".payguard", "audit.jsonl")
	}
	path = pathutil.ExpandHomePath(path)

	sink, err := approval.NewJSONLAuditSink(path, viper.GetInt64("audit.rotate_max_bytes"))
	if err != nil {
		log.Warn("audit_sink_error", "error", err.Error())
		return approval.NopAuditSink{}
	}
	return sink
}
