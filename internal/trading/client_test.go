package trading

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/AKI-NANA/ebay-connector/internal/cache"
	"github.com/AKI-NANA/ebay-connector/internal/model"
	"github.com/AKI-NANA/ebay-connector/internal/testutil"
)

// fakeTransport serves canned bodies per call name and counts invocations.
type fakeTransport struct {
	responses map[string][]byte
	err       error
	calls     int
}

var _ Transport = (*fakeTransport)(nil)

func (f *fakeTransport) Send(_ context.Context, call string, _ []byte) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.responses[call]
	if !ok {
		return nil, &TransportError{Call: call, StatusCode: 404}
	}
	return body, nil
}

// fakeFeeStore records upserts and can be told to fail.
type fakeFeeStore struct {
	upserts []model.FeeSchedule
	err     error
}

var _ FeeStore = (*fakeFeeStore)(nil)

func (f *fakeFeeStore) UpsertFeeSchedule(_ context.Context, schedule model.FeeSchedule) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, schedule)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const feesFixture = `<?xml version="1.0" encoding="utf-8"?>
<GetCategoryFeaturesResponse xmlns="urn:ebay:apis:eBLBaseComponents">
  <Ack>Success</Ack>
  <Category>
    <CategoryID>293</CategoryID>
    <ListingFormat>FixedPriceItem</ListingFormat>
    <InsertionFee currencyID="USD">0.35</InsertionFee>
    <FinalValueFee>
      <Percent>13.25</Percent>
      <Cap currencyID="USD">750.00</Cap>
    </FinalValueFee>
    <PaymentFee>
      <Percent>2.9</Percent>
      <FixedFee currencyID="USD">0.30</FixedFee>
    </PaymentFee>
  </Category>
</GetCategoryFeaturesResponse>`

func newTestClient(transport Transport, fees FeeStore) (*Client, *cache.Memory) {
	store := cache.NewMemory()
	client := NewClient(testutil.TestCredentials(), transport, store, fees, testLogger(), nil)
	return client, store
}

func TestClient_FeeFetchCachedWithinTTL(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{responses: map[string][]byte{
		CallGetCategoryFeatures: []byte(feesFixture),
	}}
	client, _ := newTestClient(transport, nil)

	first, err := client.GetCategoryFees(ctx, "293")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := client.GetCategoryFees(ctx, "293")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if transport.calls != 1 {
		t.Errorf("expected exactly one transport call within the TTL window, got %d", transport.calls)
	}
	if first.FinalValuePct != second.FinalValuePct || first.InsertionFee != second.InsertionFee {
		t.Errorf("cached fetch diverged: %+v vs %+v", first, second)
	}
	if first.FinalValuePct != 13.25 || first.FinalValueCap != 750.00 {
		t.Errorf("fee extraction mangled: %+v", first)
	}
}

func TestClient_RefetchAfterExpiry(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{responses: map[string][]byte{
		CallGetCategoryFeatures: []byte(feesFixture),
	}}
	client, store := newTestClient(transport, nil)

	current := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })
	client.SetClock(func() time.Time { return current })

	if _, err := client.GetCategoryFees(ctx, "293"); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	current = current.Add(cache.FeeTTL + time.Minute)

	if _, err := client.GetCategoryFees(ctx, "293"); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if transport.calls != 2 {
		t.Errorf("expected a fresh transport call after expiry, got %d total", transport.calls)
	}

	// The refreshed entry must serve the next call again.
	if _, err := client.GetCategoryFees(ctx, "293"); err != nil {
		t.Fatalf("post-refresh fetch: %v", err)
	}
	if transport.calls != 2 {
		t.Errorf("refresh did not re-arm the cache: %d transport calls", transport.calls)
	}
}

func TestClient_FeePersistence(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{responses: map[string][]byte{
		CallGetCategoryFeatures: []byte(feesFixture),
	}}
	fees := &fakeFeeStore{}
	client, _ := newTestClient(transport, fees)

	if _, err := client.GetCategoryFees(ctx, "293"); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(fees.upserts) != 1 {
		t.Fatalf("expected one fee upsert, got %d", len(fees.upserts))
	}
	row := fees.upserts[0]
	if row.CategoryID != "293" || row.ListingFormat != model.ListingFormatFixedPrice {
		t.Errorf("upsert keyed wrong: %+v", row)
	}
	if row.RefreshedAt.IsZero() {
		t.Error("upsert must stamp the refresh time")
	}
}

func TestClient_FeePersistenceFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{responses: map[string][]byte{
		CallGetCategoryFeatures: []byte(feesFixture),
	}}
	fees := &fakeFeeStore{err: fmt.Errorf("connection refused")}
	client, _ := newTestClient(transport, fees)

	schedule, err := client.GetCategoryFees(ctx, "293")
	if err != nil {
		t.Fatalf("a failed fee write must not fail the fetch: %v", err)
	}
	if schedule == nil || schedule.FinalValuePct != 13.25 {
		t.Errorf("caller must still get the schedule: %+v", schedule)
	}
}

func TestClient_CategoriesCacheKeyIgnoresNothing(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{responses: map[string][]byte{
		CallGetCategories: []byte(categoriesFixture),
	}}
	client, _ := newTestClient(transport, nil)

	if _, err := client.GetCategories(ctx, "5", 3); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// Different parameters must not be served from the first entry.
	if _, err := client.GetCategories(ctx, "5", 4); err != nil {
		t.Fatalf("fetch with different depth: %v", err)
	}

	if transport.calls != 2 {
		t.Errorf("distinct parameter sets must be distinct cache entries, got %d calls", transport.calls)
	}
}

func TestClient_TransportErrorPropagates(t *testing.T) {
	wantErr := &TransportError{Call: CallGetCategorySpecifics, Err: context.DeadlineExceeded}
	transport := &fakeTransport{err: wantErr}
	client, _ := newTestClient(transport, nil)

	_, err := client.GetItemSpecifics(context.Background(), "293")
	if err == nil {
		t.Fatal("expected the transport failure to propagate")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
}

func TestClient_RemoteErrorNotCached(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{responses: map[string][]byte{
		CallGetCategoryFeatures: []byte(remoteErrorFixture),
	}}
	client, _ := newTestClient(transport, nil)

	for i := 0; i < 2; i++ {
		_, err := client.GetCategoryFees(ctx, "999999")
		var remoteErr *RemoteAPIError
		if !errors.As(err, &remoteErr) {
			t.Fatalf("attempt %d: expected *RemoteAPIError, got %v", i, err)
		}
	}

	if transport.calls != 2 {
		t.Errorf("failed responses must not populate the cache, got %d calls", transport.calls)
	}
}
