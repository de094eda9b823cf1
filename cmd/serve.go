package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/pipeline"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		cat, err := loadCatalogue()
		if err != nil {
			return err
		}
		pipe := buildPipeline(st, cat)

		r := chi.NewRouter()
		origins := cfg.Server.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			runs, err := st.ListRuns(req.Context(), store.RunFilter{
				Status:       model.RunStatus(req.URL.Query().Get("status")),
				SubmissionID: req.URL.Query().Get("submission_id"),
				Limit:        50,
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/runs/{run_id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := st.GetRun(req.Context(), chi.URLParam(req, "run_id"))
			if err != nil {
				writeError(w, http.StatusNotFound, err)
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/runs/{run_id}/findings", func(w http.ResponseWriter, req *http.Request) {
			findings, err := st.ListFindings(req.Context(), chi.URLParam(req, "run_id"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, findings)
		})

		r.Post("/submissions/{submission_id}/validate", func(w http.ResponseWriter, req *http.Request) {
			submissionID := chi.URLParam(req, "submission_id")
			var manifest batchManifest
			if err := json.NewDecoder(req.Body).Decode(&manifest); err != nil {
				writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
				return
			}
			inputs := make([]pipeline.DocumentInput, 0, len(manifest.Documents))
			for _, d := range manifest.Documents {
				doc := d.Document
				doc.SubmissionID = submissionID
				inputs = append(inputs, pipeline.DocumentInput{Document: doc, Extraction: d.Extraction})
			}

			// Validation runs in the background; poll /runs for results.
			go func() {
				if _, err := pipe.ProcessBatch(ctx, submissionID, inputs); err != nil {
					zap.L().Error("background batch failed",
						zap.String("submission_id", submissionID),
						zap.Error(err))
				}
			}()
			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":        "accepted",
				"submission_id": submissionID,
			})
		})

		r.Post("/submissions/{submission_id}/revalidate", func(w http.ResponseWriter, req *http.Request) {
			submissionID := chi.URLParam(req, "submission_id")
			result, err := pipe.Revalidate(req.Context(), submissionID, cfg.Validation.SignificanceThreshold)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
