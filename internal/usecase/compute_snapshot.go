package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/globaltierra/crm-api/internal/entity"
)

type SnapshotRange struct {
	From   time.Time
	To     time.Time
	Bucket entity.BucketSize
}

// ComputeSnapshotUseCase turns raw store contents into the KPI
// document the dashboard renders. It only reads; given the same
// store contents and range the bucket data is byte-identical.
type ComputeSnapshotUseCase struct {
	Leads    LeadRepositoryInterface
	Events   PaymentEventRepositoryInterface
	Messages MessageEventRepositoryInterface

	// PointRate is how many cents buy one loyalty point.
	PointRate int64
}

func NewComputeSnapshotUseCase(
	leads LeadRepositoryInterface,
	events PaymentEventRepositoryInterface,
	messages MessageEventRepositoryInterface,
	pointRate int64,
) *ComputeSnapshotUseCase {
	if pointRate <= 0 {
		pointRate = 1000
	}
	return &ComputeSnapshotUseCase{
		Leads:     leads,
		Events:    events,
		Messages:  messages,
		PointRate: pointRate,
	}
}

type bucketSpan struct {
	label string
	start time.Time
	end   time.Time
}

func (uc *ComputeSnapshotUseCase) Execute(ctx context.Context, r SnapshotRange) (*entity.KPISnapshot, error) {
	if !r.From.Before(r.To) {
		return nil, &DomainError{Code: "INVALID_RANGE", Message: "from must be before to"}
	}

	spans := buildSpans(r.From, r.To, r.Bucket)

	// Any store failure aborts the whole computation; the previously
	// published snapshot stays current.
	created, err := uc.Leads.ListCreatedBetween(ctx, spans[0].start, spans[len(spans)-1].end)
	if err != nil {
		return nil, storeUnavailable("scan leads", err)
	}
	converted, err := uc.Leads.ListConvertedBetween(ctx, spans[0].start, spans[len(spans)-1].end)
	if err != nil {
		return nil, storeUnavailable("scan converted leads", err)
	}
	applied, err := uc.Events.ListAppliedBetween(ctx, spans[0].start, spans[len(spans)-1].end)
	if err != nil {
		return nil, storeUnavailable("scan applied payments", err)
	}
	messages, err := uc.Messages.ListSentBetween(ctx, spans[0].start, spans[len(spans)-1].end)
	if err != nil {
		return nil, storeUnavailable("scan messages", err)
	}

	buckets := make([]entity.KPIBucket, len(spans))
	for i, span := range spans {
		buckets[i] = entity.KPIBucket{Label: span.label}
	}

	index := func(t time.Time) int {
		for i, span := range spans {
			if !t.Before(span.start) && t.Before(span.end) {
				return i
			}
		}
		return -1
	}

	for _, lead := range created {
		if i := index(lead.CreatedAt); i >= 0 {
			buckets[i].LeadsCount++
		}
	}
	for _, lead := range converted {
		if lead.ConvertedAt == nil {
			continue
		}
		if i := index(*lead.ConvertedAt); i >= 0 {
			buckets[i].ConvertedCount++
		}
	}
	for _, msg := range messages {
		if i := index(msg.SentAt); i >= 0 {
			buckets[i].MessagesCount++
		}
	}
	for _, ev := range applied {
		if i := index(ev.OccurredAt); i >= 0 && ev.AmountCents >= 0 {
			buckets[i].LoyaltyPoints += ev.AmountCents / uc.PointRate
		}
	}

	return &entity.KPISnapshot{
		GeneratedAt: time.Now().UTC(),
		Buckets:     buckets,
	}, nil
}

// buildSpans produces contiguous half-open calendar intervals covering
// [from, to), aligned to UTC day, ISO week or month boundaries. Empty
// intervals stay in the sequence so the dashboard draws gaps as zero.
func buildSpans(from, to time.Time, size entity.BucketSize) []bucketSpan {
	var spans []bucketSpan
	cursor := truncate(from.UTC(), size)
	to = to.UTC()

	for cursor.Before(to) {
		next := advance(cursor, size)
		spans = append(spans, bucketSpan{
			label: label(cursor, size),
			start: cursor,
			end:   next,
		})
		cursor = next
	}
	return spans
}

func truncate(t time.Time, size entity.BucketSize) time.Time {
	y, m, d := t.Date()
	switch size {
	case entity.BucketWeek:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		// Back up to Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case entity.BucketMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

func advance(t time.Time, size entity.BucketSize) time.Time {
	switch size {
	case entity.BucketWeek:
		return t.AddDate(0, 0, 7)
	case entity.BucketMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func label(t time.Time, size entity.BucketSize) string {
	switch size {
	case entity.BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case entity.BucketMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}
