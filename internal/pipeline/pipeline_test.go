package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpearl/leadsync/internal/assign"
	"github.com/vpearl/leadsync/internal/model"
	"github.com/vpearl/leadsync/pkg/zoho"
)

type fakeNotifier struct {
	records []model.RawRecord
	source  string
	err     error
	calls   int
}

func (f *fakeNotifier) NotifyUnresolved(_ context.Context, records []model.RawRecord, sourceFile string) error {
	f.calls++
	f.records = records
	f.source = sourceFile
	return f.err
}

func testResolver() *assign.Resolver {
	table := assign.NewTable([]assign.Owner{
		{Name: "Abhishek", Areas: []string{"Adyar", "T. Nagar"}},
		{Name: "Jagan", Areas: []string{"Velachery"}},
	})
	return assign.New(table)
}

func staticParser(records []model.RawRecord, err error) Parser {
	return func(string) ([]model.RawRecord, error) {
		return records, err
	}
}

func testNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

func TestRun_EndToEnd(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Leads", "Contacts"}}
	notifier := &fakeNotifier{}

	records := []model.RawRecord{
		{Row: 2, ApplicantName: "Jane", AreaName: "Adyar", DwellingUnitInfo: "3"},
		{Row: 3, ApplicantName: "Mystery", AreaName: "unknown-zzz", DwellingUnitInfo: "1"},
		{Row: 4, ApplicantName: "John", AreaName: "T. Nagar", DwellingUnitInfo: "2"},
	}

	p := New(crm, testResolver(), "Leads",
		WithParser(staticParser(records, nil)),
		WithNotifier(notifier),
		WithPipelineClock(testNow),
	)

	result := p.Run(context.Background(), "/data/leads.xlsx")

	assert.True(t, result.Status)
	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, "Records pushed successfully!", result.Message)

	require.NotNil(t, result.Outcome)
	assert.Equal(t, 2, result.Outcome.Total)
	assert.Equal(t, 2, result.Outcome.Succeeded)
	assert.Equal(t, 0, result.Outcome.Failed)

	// The unresolved row went to the alert, not the CRM.
	assert.Equal(t, 1, notifier.calls)
	require.Len(t, notifier.records, 1)
	assert.Equal(t, 3, notifier.records[0].Row)
	assert.Equal(t, "leads.xlsx", notifier.source)

	require.Len(t, crm.inserts, 1)
	require.Len(t, crm.inserts[0], 2)
	assert.Equal(t, "Jane", crm.inserts[0][0].Name)
	assert.Equal(t, "Abhishek", crm.inserts[0][0].LeadSource)
	assert.Equal(t, "John", crm.inserts[0][1].Name)
}

func TestRun_ConnectivityFailure(t *testing.T) {
	crm := &fakeCRM{modulesErr: errors.New("dns failure")}
	p := New(crm, testResolver(), "Leads", WithParser(staticParser(nil, nil)))

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, 400, result.StatusCode)
	assert.Equal(t, "API connection failed!", result.Message)
	assert.Empty(t, crm.inserts)
}

func TestRun_ModuleMissing(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Contacts"}}
	p := New(crm, testResolver(), "Leads", WithParser(staticParser(nil, nil)))

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, "API connection failed!", result.Message)
}

func TestRun_EmptyFile(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Leads"}}
	p := New(crm, testResolver(), "Leads", WithParser(staticParser(nil, nil)))

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, 400, result.StatusCode)
	assert.Equal(t, "No records found in file", result.Message)
}

func TestRun_ParseFailure(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Leads"}}
	p := New(crm, testResolver(), "Leads",
		WithParser(staticParser(nil, errors.New("corrupt file"))),
	)

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, "No records found in file", result.Message)
}

func TestRun_NothingQualifies(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Leads"}}
	records := []model.RawRecord{
		{Row: 2, AreaName: "Adyar", NatureOfDevelopment: "Compound wall"},
	}
	p := New(crm, testResolver(), "Leads",
		WithParser(staticParser(records, nil)),
		WithKeywords([]string{"units"}),
	)

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, "No qualifying records in file", result.Message)
	assert.Empty(t, crm.inserts)
}

func TestRun_NoAreaMatches(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Leads"}}
	notifier := &fakeNotifier{}
	records := []model.RawRecord{
		{Row: 2, AreaName: "nowhere-at-all", DwellingUnitInfo: "1"},
	}
	p := New(crm, testResolver(), "Leads",
		WithParser(staticParser(records, nil)),
		WithNotifier(notifier),
	)

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, "No records matched to a salesperson", result.Message)
	assert.Equal(t, 1, notifier.calls)
	assert.Empty(t, crm.inserts)
}

func TestRun_NotifierFailureIsBestEffort(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Leads"}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	records := []model.RawRecord{
		{Row: 2, ApplicantName: "Jane", AreaName: "Adyar", DwellingUnitInfo: "1"},
		{Row: 3, AreaName: "nowhere-at-all", DwellingUnitInfo: "1"},
	}
	p := New(crm, testResolver(), "Leads",
		WithParser(staticParser(records, nil)),
		WithNotifier(notifier),
	)

	result := p.Run(context.Background(), "leads.xlsx")

	assert.True(t, result.Status)
	assert.Equal(t, 1, result.Outcome.Succeeded)
}

func TestRun_AllRecordsRejected(t *testing.T) {
	crm := &fakeCRM{
		modules: []string{"Leads"},
		insertFn: func(int, []zoho.Lead) ([]zoho.RecordStatus, error) {
			return nil, errors.New("upstream 500")
		},
	}
	records := []model.RawRecord{
		{Row: 2, ApplicantName: "Jane", AreaName: "Adyar", DwellingUnitInfo: "1"},
	}
	p := New(crm, testResolver(), "Leads", WithParser(staticParser(records, nil)))

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, 400, result.StatusCode)
	assert.Equal(t, "Failed to push some or all records", result.Message)
	require.NotNil(t, result.Outcome)
	assert.Equal(t, 1, result.Outcome.Failed)
}

func TestRun_PanicRecovered(t *testing.T) {
	crm := &fakeCRM{modules: []string{"Leads"}}
	p := New(crm, testResolver(), "Leads",
		WithParser(func(string) ([]model.RawRecord, error) {
			panic("boom")
		}),
	)

	result := p.Run(context.Background(), "leads.xlsx")

	assert.False(t, result.Status)
	assert.Equal(t, 500, result.StatusCode)
	assert.Contains(t, result.Message, "boom")
}
