package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/directory"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/storage"
)

type counts struct {
	Practitioners int
	Patients      int
	Appointments  int
}

// dataset is what one seed run writes, in append order.
type dataset struct {
	Practitioners []directory.Practitioner
	Patients      []directory.Patient
	Appointments  []appointment.Appointment
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		n       counts
		seed    uint64
		dataDir string
	)

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Append fake practitioners, patients and appointments to the store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			log := logging.New(cfg.LogLevel, logging.FormatFor(cfg.Env), os.Stdout)

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			log.Info().Uint64("seed", seed).Str("store", cfg.StoreBackend).Msg("seed starting")

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			backend, err := storage.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer backend.Close()

			data := generate(gofakeit.New(seed), n, appointment.DateOf(time.Now()))
			if err := write(ctx, backend, data, log); err != nil {
				return err
			}
			log.Info().Msg("seed complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&n.Practitioners, "practitioners", 10, "Number of practitioners to create")
	cmd.Flags().IntVar(&n.Patients, "patients", 200, "Number of patients to create")
	cmd.Flags().IntVar(&n.Appointments, "appointments", 500, "Number of appointments to create")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for the CSV files (overrides DATA_DIR)")
	return cmd
}

// generate builds a consistent dataset around today. Codes are unique and
// no two pending appointments share a practitioner's slot.
func generate(f *gofakeit.Faker, n counts, today appointment.Date) dataset {
	var data dataset

	seen := map[string]bool{}
	for len(data.Practitioners) < n.Practitioners {
		code := f.Numerify("####")
		if seen[code] {
			continue
		}
		seen[code] = true
		data.Practitioners = append(data.Practitioners, directory.Practitioner{Code: code, Name: f.Name()})
	}

	seen = map[string]bool{}
	for len(data.Patients) < n.Patients {
		code := f.Numerify("###########")
		if seen[code] {
			continue
		}
		seen[code] = true
		data.Patients = append(data.Patients, directory.Patient{Code: code, Name: f.Name()})
	}

	if len(data.Practitioners) == 0 || len(data.Patients) == 0 {
		return data
	}

	booked := map[string]bool{}
	for attempts := 0; len(data.Appointments) < n.Appointments && attempts < n.Appointments*20; attempts++ {
		pr := data.Practitioners[f.Number(0, len(data.Practitioners)-1)]
		pt := data.Patients[f.Number(0, len(data.Patients)-1)]
		a := appointment.Appointment{
			Date:             today.AddDays(f.Number(-180, 90)),
			Time:             appointment.Clock{Hour: f.Number(8, 17), Minute: 30 * f.Number(0, 1)},
			PatientCode:      pt.Code,
			PractitionerCode: pr.Code,
			Status:           appointment.StatusPending,
		}
		if f.Number(1, 10) == 1 {
			a.Status = appointment.StatusCancelled
		}

		slot := a.PractitionerCode + "|" + a.Date.String() + "|" + a.Time.String()
		if a.Status == appointment.StatusPending {
			if booked[slot] {
				continue
			}
			booked[slot] = true
		}
		data.Appointments = append(data.Appointments, a)
	}
	return data
}

func write(ctx context.Context, backend storage.Backend, data dataset, log zerolog.Logger) error {
	log.Info().Int("count", len(data.Practitioners)).Msg("seeding practitioners")
	for _, p := range data.Practitioners {
		if err := backend.AppendPractitioner(ctx, p); err != nil {
			return fmt.Errorf("append practitioner %s: %w", p.Code, err)
		}
	}

	log.Info().Int("count", len(data.Patients)).Msg("seeding patients")
	for _, p := range data.Patients {
		if err := backend.AppendPatient(ctx, p); err != nil {
			return fmt.Errorf("append patient %s: %w", p.Code, err)
		}
	}

	log.Info().Int("count", len(data.Appointments)).Msg("seeding appointments")
	for i, a := range data.Appointments {
		if err := backend.AppendAppointment(ctx, a); err != nil {
			return fmt.Errorf("append appointment %d: %w", i, err)
		}
		if (i+1)%100 == 0 {
			log.Debug().Int("done", i+1).Int("total", len(data.Appointments)).Msg("appointments seeded")
		}
	}
	return nil
}
