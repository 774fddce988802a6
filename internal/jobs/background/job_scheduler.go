package background

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"rentledger/internal/repositories"
	"rentledger/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// JobScheduler runs the recurring ledger jobs: monthly rent generation and the
// balance cache refresh sweep. The jobs map is filled once at construction and
// read-only afterwards.
type JobScheduler struct {
	scheduler  gocron.Scheduler
	ledgerSvc  services.LedgerServiceInterface
	tenantRepo repositories.TenantRepository
	chargeRepo repositories.ChargeRepository
	jobs       map[string]gocron.Job
}

func NewJobScheduler(ledgerSvc services.LedgerServiceInterface, tenantRepo repositories.TenantRepository, chargeRepo repositories.ChargeRepository) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:  scheduler,
		ledgerSvc:  ledgerSvc,
		tenantRepo: tenantRepo,
		chargeRepo: chargeRepo,
		jobs:       make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Monthly rent generation - 02:00 on the 1st of each month
	rentJob, err := js.scheduler.NewJob(
		gocron.CronJob("0 2 1 * *", false),
		gocron.NewTask(js.generateMonthlyRent, context.Background()),
		gocron.WithName("monthly-rent-generation"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create monthly rent job: %v", err)
	} else {
		js.jobs["monthly-rent"] = rentJob
	}

	// Balance cache refresh sweep - every 15 minutes
	refreshJob, err := js.scheduler.NewJob(
		gocron.DurationJob(15*time.Minute),
		gocron.NewTask(js.refreshBalances, context.Background()),
		gocron.WithName("balance-cache-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create balance refresh job: %v", err)
	} else {
		js.jobs["balance-refresh"] = refreshJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// generateMonthlyRent posts this month's rent charge for every tenant with a
// configured rent. The description carries the month, so a rerun within the
// same month finds the existing charge and skips the tenant.
func (js *JobScheduler) generateMonthlyRent(ctx context.Context) error {
	month := time.Now().Format("2006-01")
	description := fmt.Sprintf("Monthly rent %s", month)
	log.Printf("Starting monthly rent generation for %s", month)

	tenants, err := js.tenantRepo.ListWithRent(ctx)
	if err != nil {
		log.Printf("Failed to get tenants for rent generation: %v", err)
		return err
	}

	dueDate := time.Now().AddDate(0, 0, 5)
	generated := 0
	for _, tenant := range tenants {
		exists, err := js.chargeRepo.ExistsForMonth(ctx, tenant.ID, description)
		if err != nil {
			log.Printf("Failed to check existing rent charge for tenant %s: %v", tenant.ID.String(), err)
			continue
		}
		if exists {
			continue
		}

		desc := description
		if _, err := js.ledgerSvc.AddCharge(ctx, tenant.ID, tenant.MonthlyRentCents, &desc, &dueDate); err != nil {
			log.Printf("Failed to create rent charge for tenant %s: %v", tenant.ID.String(), err)
			continue
		}
		generated++
	}

	log.Printf("Completed monthly rent generation: %d charges created for %d tenants", generated, len(tenants))
	return nil
}

// refreshBalances recomputes every tenant's cached balance with bounded
// concurrency.
func (js *JobScheduler) refreshBalances(ctx context.Context) error {
	log.Printf("Starting balance cache refresh")

	tenants, err := js.tenantRepo.List(ctx, 1000, 0)
	if err != nil {
		log.Printf("Failed to get tenants for balance refresh: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if _, err := js.ledgerSvc.RefreshBalance(ctx, tenantID); err != nil {
				log.Printf("Failed to refresh balance for tenant %s: %v", tenantID.String(), err)
			}
		}(tenant.ID)
	}

	wg.Wait()
	log.Printf("Completed balance cache refresh for %d tenants", len(tenants))
	return nil
}

// GetJobStatus returns information about scheduled jobs, surfaced by the
// health endpoint.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobs)
	jobs := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		jobs = append(jobs, name)
	}
	status["jobs"] = jobs
	return status
}
