package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/finchly/payguard/approval"
	"github.com/finchly/payguard/db"
	"github.com/finchly/payguard/httpapi"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the approvals API and resume dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8090)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(ctx context.Context) error {
	if err := prepareCheckpointSchema(ctx); err != nil {
		return err
	}

	notifier := approval.NewChanNotifier(viper.GetInt("server.event_buffer"), log)
	wf, cleanup, err := buildWorkflow(log, notifier)
	if err != nil {
		return err
	}
	defer cleanup()

	runs := NewRunRegistry(viper.GetInt("server.max_queue"))
	defer runs.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go dispatchDecisions(ctx, notifier, runs)
	go resumeWorker(runs)

	addr := viper.GetString("server.addr")
	if addr == "" {
		addr = ":8090"
	}
	mux := chi.NewRouter()
	mux.Mount("/", httpapi.NewServer(wf, log).Handler())
	runRoutes(mux, runs)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("approvals_api_listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting_down")
	return srv.Shutdown(shutdownCtx)
}

// prepareCheckpointSchema migrates the checkpoint tables so embedding agent
// processes sharing the database find the schema ready. Skipped when
// db.automigrate is off.
func prepareCheckpointSchema(ctx context.Context) error {
	cfg := dbConfigFromViper()
	if !cfg.AutoMigrate {
		return nil
	}
	gdb, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open checkpoint db: %w", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate checkpoint db: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}

// dispatchDecisions routes approval outcomes to the run registry: approved
// runs are queued for resume, rejected ones are failed in place.
func dispatchDecisions(ctx context.Context, notifier *approval.ChanNotifier, runs *RunRegistry) {
	for {
		select {
		case <-ctx.Done():
			return
		case sum := <-notifier.Events():
			switch sum.Status {
			case approval.StatusApproved:
				runID, err := runs.EnqueueResumeByApprovalID(sum.ApprovalID)
				if err != nil {
					log.Warn("resume_enqueue_failed", "approval_id", sum.ApprovalID, "error", err.Error())
					continue
				}
				log.Info("resume_enqueued", "approval_id", sum.ApprovalID, "run_id", runID)
			case approval.StatusRejected:
				runID, ok := runs.FailPendingByApprovalID(sum.ApprovalID, "approval rejected: "+sum.DecisionReason)
				if !ok {
					log.Warn("no_run_for_rejection", "approval_id", sum.ApprovalID)
					continue
				}
				log.Info("run_failed_on_rejection", "approval_id", sum.ApprovalID, "run_id", runID)
			}
		}
	}
}

// resumeWorker drains the resume queue. The governed executor is hosted by
// the embedding agent process; this daemon marks the run ready and records
// when it was handed over.
func resumeWorker(runs *RunRegistry) {
	for {
		info, ok := runs.Next()
		if !ok {
			return
		}
		now := time.Now().UTC()
		runs.Update(info.ID, func(ri *RunInfo) {
			ri.Status = RunResumed
			ri.ResumedAt = &now
			ri.FinishedAt = &now
		})
		log.Info("resume_dispatched",
			"run_id", info.ID,
			"execution_id", info.ExecutionID,
			"approval_id", info.ApprovalID,
		)
	}
}
