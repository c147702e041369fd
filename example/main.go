package main

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/shelfwatch/pkg/application/services/monitor"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	testhelpers "github.com/vsinha/shelfwatch/pkg/infrastructure/testing"
)

func main() {
	ctx := context.Background()

	// Evaluate the sample plant data as of 2024-06-01
	m, err := monitor.NewMonitor(monitor.DefaultOptions(),
		monitor.WithClock(func() time.Time { return testhelpers.AsOf }),
	)
	if err != nil {
		fmt.Printf("❌ Monitor setup failed: %v\n", err)
		return
	}

	snap, err := m.LoadSnapshot(testhelpers.BuildComplianceTablesWithExtract())
	if err != nil {
		fmt.Printf("❌ Snapshot rejected: %v\n", err)
		return
	}

	fmt.Println("🔎 Checking shelf-life compliance...")
	fmt.Printf("Snapshot: %s (%d material records)\n", snap.ID, snap.Counts.Records)
	fmt.Println()

	result, err := m.Classify(ctx, snap)
	if err != nil {
		fmt.Printf("❌ Classification failed: %v\n", err)
		return
	}

	fmt.Println("📋 Classified Records:")
	for _, r := range result.Records {
		fmt.Printf("  %-22s expected %-10s recorded %-10s %-16s %s\n",
			r.Key,
			entities.FormatDate(r.ExpectedExpiry),
			entities.FormatDate(r.RecordedExpiry),
			r.DeviationStatus,
			r.TemporalStatus)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  ⚠️  %v\n", w)
	}
	fmt.Println()

	report, err := m.Audit(ctx, snap)
	if err != nil {
		fmt.Printf("❌ Audit failed: %v\n", err)
		return
	}

	fmt.Println("🔍 Divergences:")
	for _, d := range report.Divergences {
		fmt.Printf("  %-10s %s %s\n", d.Key, d.Kind, d.Detail)
	}
	fmt.Println()

	tl, err := m.BuildTimeline(ctx, snap, nil)
	if err != nil {
		fmt.Printf("❌ Timeline failed: %v\n", err)
		return
	}

	fmt.Printf("⏳ Critical Items (excluding %s):\n", tl.Excluded)
	for _, entry := range tl.CriticalItems() {
		fmt.Printf("  %-22s expires %s %s\n", entry.Key, entities.FormatDate(entry.AnalysisExpiry), entry.TemporalStatus)
	}
	fmt.Println()

	fmt.Println("✅ Compliance check complete!")
}
