// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dealerdrive/adpilot/app/services"
	businessflow "github.com/dealerdrive/adpilot/business_flow"
	"github.com/dealerdrive/adpilot/config"
	"github.com/dealerdrive/adpilot/models"
	"github.com/dealerdrive/adpilot/repository"
	"github.com/dealerdrive/adpilot/utils"
)

const rotationLockKey = "adpilot:rotation:lock"

var (
	rotationCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adpilot_rotation_cycles_total",
		Help: "Rotation cycles by outcome",
	}, []string{"status"})

	rotationVehiclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adpilot_rotation_vehicles_total",
		Help: "Vehicles processed by rotation cycles, by result",
	}, []string{"result"})

	rotationCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adpilot_rotation_cycle_duration_seconds",
		Help:    "Wall time of one rotation cycle",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// BatchError describes one failed vehicle within a rotation cycle
type BatchError struct {
	StockNumber string `json:"stock_number"`
	Step        string `json:"step"`
	Message     string `json:"message"`
	Transient   bool   `json:"transient"`
}

// CampaignInsight is one best-effort insights read taken at the end of a cycle.
// Metric values stay in the platform's string form; the report is an audit
// artifact, not an arithmetic input.
type CampaignInsight struct {
	CampaignID  string `json:"campaign_id"`
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Spend       string `json:"spend"`
	Reach       string `json:"reach"`
}

// BatchReport summarizes one rotation cycle. It is persisted verbatim into the
// activity record payload for the cycle's date.
type BatchReport struct {
	BatchID      string                        `json:"batch_id"`
	TickKey      int64                         `json:"tick_key"`
	StartedAt    time.Time                     `json:"started_at"`
	FinishedAt   time.Time                     `json:"finished_at"`
	SuccessCount int                           `json:"success_count"`
	ErrorCount   int                           `json:"error_count"`
	Resources    []businessflow.RemoteResource `json:"resources,omitempty"`
	Errors       []BatchError                  `json:"errors,omitempty"`
	Insights     []CampaignInsight             `json:"insights,omitempty"`
}

// RotationScheduler periodically advances a sliding window over each customer's
// active inventory pool and orchestrates one campaign per vehicle in the window.
// The tick key is monotonic, so every vehicle is reached after enough cycles
// regardless of pool size.
type RotationScheduler struct {
	registryRepo repository.CampaignRegistryRepository
	vehicleRepo  repository.VehicleRepository
	flow         businessflow.CampaignFlow
	credentials  services.CredentialService
	client       services.AdsPlatformClient
	recorder     businessflow.ActivityRecorder
	rc           *redis.Client
	limiter      *rate.Limiter
	logger       *log.Logger
	cfg          config.RotationConfig

	tick      atomic.Int64
	logCloser io.Closer
}

func NewRotationScheduler(
	registryRepo repository.CampaignRegistryRepository,
	vehicleRepo repository.VehicleRepository,
	flow businessflow.CampaignFlow,
	credentials services.CredentialService,
	client services.AdsPlatformClient,
	recorder businessflow.ActivityRecorder,
	rc *redis.Client,
	cfg config.RotationConfig,
) *RotationScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.PaceRPS <= 0 {
		cfg.PaceRPS = 0.5
	}

	s := &RotationScheduler{
		registryRepo: registryRepo,
		vehicleRepo:  vehicleRepo,
		flow:         flow,
		credentials:  credentials,
		client:       client,
		recorder:     recorder,
		rc:           rc,
		limiter:      rate.NewLimiter(rate.Limit(cfg.PaceRPS), 1),
		cfg:          cfg,
	}
	s.initSchedulerLogger()
	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a rotating file
func (s *RotationScheduler) initSchedulerLogger() {
	var w io.Writer = os.Stdout
	if s.cfg.LogFilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   s.cfg.LogFilePath,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		s.logCloser = lj
		w = io.MultiWriter(os.Stdout, lj)
	}
	s.logger = log.New(w, "rotation ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *RotationScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		if s.logCloser != nil {
			_ = s.logCloser.Close()
		}
	}
}

func (s *RotationScheduler) runOnce(ctx context.Context) {
	tickKey := s.tick.Add(1) - 1
	report, err := s.RunCycle(ctx, tickKey)
	if err != nil {
		s.logger.Printf("rotation: cycle tick=%d failed: %v", tickKey, err)
		return
	}
	s.logger.Printf("rotation: cycle tick=%d done batch=%s success=%d errors=%d",
		tickKey, report.BatchID, report.SuccessCount, report.ErrorCount)
}

// RunCycle executes one full rotation pass for every registered account and
// returns the cycle's batch report. A redis lock keeps concurrent cycles out;
// a second caller gets ErrCycleInProgress instead of a partial run.
func (s *RotationScheduler) RunCycle(ctx context.Context, tickKey int64) (*BatchReport, error) {
	if s.rc != nil {
		ok, err := s.rc.SetNX(ctx, rotationLockKey, "1", s.cfg.Interval).Result()
		if err != nil {
			s.logger.Printf("rotation: lock acquire failed, proceeding without lock: %v", err)
		} else if !ok {
			rotationCyclesTotal.WithLabelValues("locked").Inc()
			return nil, businessflow.ErrCycleInProgress
		} else {
			defer func() { _ = s.rc.Del(context.Background(), rotationLockKey).Err() }()
		}
	}

	started := utils.UTCNow()
	report := &BatchReport{
		BatchID:   uuid.New().String(),
		TickKey:   tickKey,
		StartedAt: started,
	}

	registries, err := s.registryRepo.ByFilter(ctx, models.CampaignRegistryFilter{}, "id ASC", 0, 0)
	if err != nil {
		rotationCyclesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("list registries: %w", err)
	}
	if len(registries) == 0 {
		s.logger.Printf("rotation: no registered accounts, nothing to do")
	}

	for _, reg := range registries {
		if ctx.Err() != nil {
			break
		}
		s.processAccount(ctx, tickKey, reg, report)
	}

	// Best-effort insights pass; failures only reduce the report, never the cycle.
	s.collectInsights(ctx, registries, report)

	report.FinishedAt = utils.UTCNow()
	rotationCycleDuration.Observe(report.FinishedAt.Sub(started).Seconds())
	rotationCyclesTotal.WithLabelValues("completed").Inc()

	if s.recorder != nil {
		s.recorder.Record(ctx, report.BatchID, report.SuccessCount, report.ErrorCount, report)
	}

	return report, nil
}

// processAccount rotates one registered account's window of vehicles
func (s *RotationScheduler) processAccount(ctx context.Context, tickKey int64, reg *models.CampaignRegistry, report *BatchReport) {
	pool, err := s.vehicleRepo.ListActivePool(ctx, reg.CustomerID)
	if err != nil {
		s.logger.Printf("rotation: list pool failed for customer=%d: %v", reg.CustomerID, err)
		report.ErrorCount++
		report.Errors = append(report.Errors, BatchError{
			Step:    businessflow.StepValidation,
			Message: fmt.Sprintf("list inventory pool: %v", err),
		})
		return
	}
	if len(pool) == 0 {
		s.logger.Printf("rotation: customer=%d has an empty inventory pool", reg.CustomerID)
		return
	}

	window := rotationWindow(len(pool), s.cfg.WindowSize, tickKey)
	s.logger.Printf("rotation: customer=%d pool=%d window=%d start=%d",
		reg.CustomerID, len(pool), len(window), window[0])

	for _, idx := range window {
		if ctx.Err() != nil {
			return
		}
		// Pace outgoing platform traffic across the whole cycle
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		vehicle := pool[idx]
		result := s.flow.OrchestrateCampaign(ctx, s.buildRequest(reg, vehicle), &businessflow.ClientMetadata{
			RequestID: report.BatchID,
			UserAgent: "adpilot-rotation",
		})

		if result.Success {
			report.SuccessCount++
			report.Resources = append(report.Resources, result.Resources...)
			rotationVehiclesTotal.WithLabelValues("success").Inc()
			s.logger.Printf("rotation: vehicle stock=%s campaign=%s adset=%s ad=%s",
				vehicle.StockNumber, result.ResourceID("campaign"), result.ResourceID("adset"), result.ResourceID("ad"))
			continue
		}

		transient := services.IsTransientPlatformError(result.Err)
		report.ErrorCount++
		report.Errors = append(report.Errors, BatchError{
			StockNumber: vehicle.StockNumber,
			Step:        result.FailedStep,
			Message:     result.Err.Error(),
			Transient:   transient,
		})
		rotationVehiclesTotal.WithLabelValues("error").Inc()
		s.logger.Printf("rotation: vehicle stock=%s failed at %s: %v", vehicle.StockNumber, result.FailedStep, result.Err)

		if transient {
			s.logger.Printf("rotation: transient platform error, cooling down for %s", s.cfg.Cooldown)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.Cooldown):
			}
		}
	}
}

// buildRequest derives the per-vehicle orchestration input from registry and config defaults
func (s *RotationScheduler) buildRequest(reg *models.CampaignRegistry, vehicle *models.Vehicle) *businessflow.CampaignRequest {
	label := vehicle.DisplayName()
	return &businessflow.CampaignRequest{
		CustomerID:   reg.CustomerID,
		AdAccountID:  reg.AdAccountID,
		CampaignName: fmt.Sprintf("Inventory Rotation act_%s", reg.AdAccountID),
		AdSetName:    fmt.Sprintf("%s [%s]", label, vehicle.StockNumber),
		AdName:       fmt.Sprintf("%s [%s]", label, vehicle.StockNumber),
		BudgetCents:  s.cfg.BudgetCents,
		DurationDays: s.cfg.DurationDays,
		Vehicle:      vehicle,
	}
}

// collectInsights reads aggregate delivery metrics for each account's active campaign
func (s *RotationScheduler) collectInsights(ctx context.Context, registries []*models.CampaignRegistry, report *BatchReport) {
	for _, reg := range registries {
		if reg.ActiveCampaignID == nil || *reg.ActiveCampaignID == "" {
			continue
		}
		token, _, err := s.credentials.GetToken(ctx, reg.CustomerID, models.IntegrationProviderMeta)
		if err != nil {
			s.logger.Printf("rotation: insights skipped for customer=%d: %v", reg.CustomerID, err)
			continue
		}
		res, err := s.client.GetInsights(ctx, token, *reg.ActiveCampaignID, s.cfg.InsightsPreset)
		if err != nil {
			s.logger.Printf("rotation: insights fetch failed for campaign=%s: %v", *reg.ActiveCampaignID, err)
			continue
		}
		report.Insights = append(report.Insights, CampaignInsight{
			CampaignID:  *reg.ActiveCampaignID,
			Impressions: res.Impressions,
			Clicks:      res.Clicks,
			Spend:       res.Spend,
			Reach:       res.Reach,
		})
	}
}

// rotationWindow returns the pool indexes covered by one tick. The start index
// advances by a full window per tick and wraps, so k ticks with distinct keys
// cover any pool of size <= windowSize*k.
func rotationWindow(poolSize, windowSize int, tickKey int64) []int {
	if poolSize <= 0 {
		return nil
	}
	if windowSize > poolSize {
		windowSize = poolSize
	}
	step := tickKey * int64(windowSize)
	start := int((step%int64(poolSize)+int64(poolSize)) % int64(poolSize))
	out := make([]int, 0, windowSize)
	for i := 0; i < windowSize; i++ {
		out = append(out, (start+i)%poolSize)
	}
	return out
}
