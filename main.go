package main

import (
	"context"
	"log"
	"os"

	"Weighbridge/Billing"
	"Weighbridge/CronJobs"
	"Weighbridge/FiberConfig"
	"Weighbridge/Models"
)

func main() {
	ctx := context.Background()

	store, err := Models.Connect(ctx)
	if err != nil {
		log.Fatal("Failed to connect to Firestore:", err)
	}
	Models.Store = store

	tariff, err := Billing.LoadTariff(os.Getenv("TARIFF_FILE"))
	if err != nil {
		log.Fatal("Failed to load tariff:", err)
	}

	backup := CronJobs.NewBackupScheduler(store)
	if err := backup.Start(); err != nil {
		log.Printf("Backup scheduler not started: %v\n", err)
	}
	defer backup.Stop()

	FiberConfig.FiberConfig(store, tariff)
}
