package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/engine"
	"github.com/spektr-org/tabula/formatter"
	"github.com/spektr-org/tabula/helpers"
	"github.com/spektr-org/tabula/llm"
	"github.com/spektr-org/tabula/translator"
)

var (
	streetHeader = []string{"Location", "Date", "Action"}
	streetRows   = []dataset.RawRow{
		{"A St", "6/1/2025", "Fixed leak"},
		{"B St", "6/15/2025", "Changed filter"},
	}
)

func unreachable() llm.Client {
	return llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
		return "", &llm.Error{Kind: llm.KindUnavailable, Err: errors.New("dial tcp: connection refused")}
	})
}

// scripted answers planning prompts with plan and formatting prompts with
// answer. Either may be empty to force a parse failure.
func scripted(plan, answer string) llm.Client {
	return llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "INTENTS:") {
			return plan, nil
		}
		return answer, nil
	})
}

func loaded(t *testing.T, client llm.Client) *Assistant {
	t.Helper()
	a := New(client)
	require.NoError(t, a.Load(context.Background(), "streets", streetHeader, streetRows))
	return a
}

func TestAsk_NoDataset(t *testing.T) {
	out := New(nil).Ask(context.Background(), "how many records")

	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err, ErrNoDataset)
	assert.Equal(t, NoDatasetMessage, out.Error)
	assert.NotEmpty(t, out.RequestID)
}

func TestAsk_BlankQuestion(t *testing.T) {
	out := loaded(t, nil).Ask(context.Background(), "   ")

	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err, ErrBlankQuestion)
}

func TestAsk_ModelPlanMonthScenario(t *testing.T) {
	client := scripted(
		`{"filters":[{"field":"Date","operator":"month","value":6}],"fields":[],"intent":"count"}`,
		`{"answer":"There are 2 records in June.","source":"Date column"}`,
	)
	a := loaded(t, client)

	out := a.Ask(context.Background(), "how many in June?")

	require.True(t, out.OK())
	assert.Equal(t, PathPlan, out.Path)
	assert.Equal(t, translator.SourceModel, out.PlanSource)
	assert.Equal(t, formatter.SourceModel, out.AnswerSource)
	assert.Equal(t, engine.IntentCount, out.Intent)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, "There are 2 records in June.", out.Answer)
	assert.False(t, out.Degraded)
}

func TestAsk_ModelPlanEqualsScenario(t *testing.T) {
	client := scripted(
		`{"filters":[{"field":"Location","operator":"equals","value":"a st"}],"fields":[],"intent":"list"}`,
		"",
	)
	a := loaded(t, client)

	out := a.Ask(context.Background(), "show jobs on a st")

	require.True(t, out.OK())
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, formatter.SourceManual, out.AnswerSource)
	assert.Contains(t, out.Answer, "Location: A St")
	assert.NotContains(t, out.Answer, "B St")
	assert.False(t, out.Degraded)
}

func TestAsk_KeywordHitsSurviveNetworkFailure(t *testing.T) {
	a := loaded(t, unreachable())

	out := a.Ask(context.Background(), "what about the fixed leak")

	require.True(t, out.OK())
	assert.Equal(t, PathKeyword, out.Path)
	assert.Equal(t, 1, out.Total)
	assert.Contains(t, out.Answer, "Fixed leak")
	assert.Contains(t, out.Answer, UnavailableNote)
	assert.True(t, out.Degraded)
}

func TestAsk_KeywordHitsHonorDates(t *testing.T) {
	a := New(nil)
	require.NoError(t, a.Load(context.Background(), "jobs", streetHeader, []dataset.RawRow{
		{"Pump House", "5/3/2025", "Replaced seal"},
		{"Pump House", "6/20/2025", "Cleaned strainer"},
		{"Pump House", "7/8/2025", "Checked level"},
		{"Tank Farm", "6/2/2025", "Painted rails"},
	}))

	out := a.Ask(context.Background(), "how many at pump house in june?")

	require.True(t, out.OK())
	assert.Equal(t, PathKeyword, out.Path)
	assert.Equal(t, engine.IntentCount, out.Intent)
	assert.Equal(t, 1, out.Total)

	out = a.Ask(context.Background(), "what happened at pump house on 2025-05-03")

	require.True(t, out.OK())
	assert.Equal(t, PathKeyword, out.Path)
	assert.Equal(t, 1, out.Total)
	assert.Contains(t, out.Answer, "Replaced seal")
	assert.NotContains(t, out.Answer, "Cleaned strainer")

	out = a.Ask(context.Background(), "how many at pump house")

	require.True(t, out.OK())
	assert.Equal(t, 3, out.Total)
}

func TestAsk_NoHitsNetworkFailureCarriesNote(t *testing.T) {
	a := loaded(t, unreachable())

	out := a.Ask(context.Background(), "how many in June")

	require.True(t, out.OK())
	assert.Equal(t, PathPlan, out.Path)
	assert.Equal(t, translator.SourceRules, out.PlanSource)
	assert.Equal(t, engine.IntentCount, out.Intent)
	assert.Equal(t, 2, out.Total)
	assert.Contains(t, out.Answer, "Found 2 records")
	assert.Contains(t, out.Answer, UnavailableNote)
}

func TestAsk_EmptyDataset(t *testing.T) {
	a := New(nil)
	require.NoError(t, a.Load(context.Background(), "empty", nil, nil))

	out := a.Ask(context.Background(), "how many records")

	if out.OK() {
		assert.Contains(t, out.Answer, "Found 0 records")
	} else {
		assert.NotEmpty(t, out.Error)
	}
}

func TestAsk_RecoversPanics(t *testing.T) {
	client := llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
		panic("backend exploded")
	})
	a := loaded(t, client)

	out := a.Ask(context.Background(), "how many in June")

	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err, ErrInternal)
	assert.Equal(t, InternalMessage, out.Error)
}

func TestLoadClearSnapshot(t *testing.T) {
	a := loaded(t, nil)
	first := a.Snapshot()
	require.NotNil(t, first)

	require.NoError(t, a.LoadTable(context.Background(), helpers.Table{
		Name:   "more",
		Header: streetHeader,
		Rows:   append(streetRows, dataset.RawRow{"C St", "7/1/2025", "Painted"}),
	}))
	second := a.Snapshot()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Len())
	assert.Equal(t, 2, first.Len())

	a.Clear()
	assert.Nil(t, a.Snapshot())
	assert.ErrorIs(t, a.Ask(context.Background(), "how many").Err, ErrNoDataset)
}

func TestAskAsync_NoLeaks(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := loaded(t, unreachable())

	var wg sync.WaitGroup
	for _, q := range []string{"how many in June", "fixed leak", "list all locations"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, ok := <-a.AskAsync(context.Background(), q)
			assert.True(t, ok)
			assert.True(t, out.OK(), q)
		}()
	}
	wg.Wait()

	ch := a.AskAsync(context.Background(), "how many")
	<-ch
	_, open := <-ch
	assert.False(t, open)
}

func TestAsk_InFlightKeepsSnapshot(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	client := llm.ClientFunc(func(_ context.Context, req llm.Request) (string, error) {
		if strings.Contains(req.Prompt, "INTENTS:") {
			once.Do(func() { close(entered) })
			<-release
			return `{"filters":[],"fields":[],"intent":"count"}`, nil
		}
		return "", errors.New("no formatting")
	})
	a := loaded(t, client)

	done := a.AskAsync(context.Background(), "how many in June")
	<-entered
	a.Clear()
	close(release)
	out := <-done

	require.True(t, out.OK())
	assert.Equal(t, 2, out.Total)
}
