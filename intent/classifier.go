// Package intent decides what a chat message asks for and pulls task fields
// out of it.
package intent

import (
	"context"
	"sync"

	"github.com/benjamonnguyen/daybook"
)

// Verdict is one strategy's reading of a message. An empty or unknown Intent
// defers to the next strategy.
type Verdict struct {
	Intent daybook.Intent
	Fields daybook.Fields
}

func (v Verdict) Confident() bool {
	return v.Intent != "" && v.Intent != daybook.IntentUnknown
}

type Strategy interface {
	Name() string
	Classify(ctx context.Context, message string) (Verdict, error)
}

type Decision struct {
	Intent daybook.Intent
	Fields daybook.Fields
	// By names the strategy that decided the intent.
	By string
}

// FreeTextReader is implemented by strategies whose description, start and
// duration fields outrank those of other strategies.
type FreeTextReader interface {
	ReadsFreeText() bool
}

var (
	freeTextFields = []daybook.Field{daybook.FieldDescription, daybook.FieldStartTime, daybook.FieldDuration}
	allFields      = []daybook.Field{daybook.FieldDescription, daybook.FieldStartTime, daybook.FieldDuration, daybook.FieldDate}
)

// Classifier applies strategies in priority order: the first confident
// verdict decides the intent, and each field takes the first non-empty value
// in the same order, except that free-text fields are taken from a
// FreeTextReader first. Strategies run concurrently; a failing strategy
// defers.
type Classifier struct {
	strategies []Strategy
	l          daybook.Logger
}

func NewClassifier(logger daybook.Logger, strategies ...Strategy) *Classifier {
	return &Classifier{
		strategies: strategies,
		l:          logger,
	}
}

func (c *Classifier) Classify(ctx context.Context, message string) Decision {
	verdicts := make([]Verdict, len(c.strategies))

	var wg sync.WaitGroup
	for i, s := range c.strategies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Classify(ctx, message)
			if err != nil {
				c.l.Warn("strategy deferred", "strategy", s.Name(), "err", err)
				return
			}
			verdicts[i] = v
		}()
	}
	wg.Wait()

	d := Decision{Intent: daybook.IntentUnknown}
	for i, v := range verdicts {
		if d.By == "" && v.Confident() {
			d.Intent = v.Intent
			d.By = c.strategies[i].Name()
		}
		if readsFreeText(c.strategies[i]) {
			fill(&d.Fields, v.Fields, freeTextFields)
		}
	}
	for _, v := range verdicts {
		fill(&d.Fields, v.Fields, allFields)
	}

	c.l.Debug("classified", "intent", d.Intent, "by", d.By, "fields", d.Fields)
	return d
}

func readsFreeText(s Strategy) bool {
	r, ok := s.(FreeTextReader)
	return ok && r.ReadsFreeText()
}

// fill copies the fields of src that dst has not set yet.
func fill(dst *daybook.Fields, src daybook.Fields, fields []daybook.Field) {
	for _, f := range fields {
		if dst.Get(f) == "" {
			dst.Set(f, src.Get(f))
		}
	}
}
