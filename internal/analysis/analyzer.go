// Package analysis sequences the remote completion call, response
// normalization and the demo fallback into a single never-failing operation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudcost-guard/internal/demo"
	"github.com/cloudcost-guard/internal/domain"
	"github.com/cloudcost-guard/internal/llm"
	"github.com/cloudcost-guard/internal/logging"
	"github.com/cloudcost-guard/internal/normalize"
)

// Analyzer turns billing text into an AnalysisResponse
type Analyzer struct {
	provider llm.Provider
	parser   *normalize.Parser
	logger   *logging.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger used for stage logging
func WithLogger(l *logging.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithParser replaces the default response parser
func WithParser(p *normalize.Parser) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.parser = p
		}
	}
}

// New creates an Analyzer. A nil provider means every request is served
// from demo data.
func New(provider llm.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: provider,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.parser == nil {
		a.parser = normalize.NewParser(a.logger)
	}
	return a
}

// Request is one analysis invocation
type Request struct {
	BillingData      string
	Credential       string
	CredentialSource domain.CredentialKind
	Currency         domain.Currency
}

// Analyze runs key check, remote call, parse, validate and resolve. It never
// fails: every error degrades to the selector's demo dataset.
func (a *Analyzer) Analyze(ctx context.Context, raw, credential string) domain.AnalysisResponse {
	kind := domain.CredentialEnv
	if strings.TrimSpace(credential) == "" {
		kind = domain.CredentialNone
	}
	return a.Run(ctx, Request{
		BillingData:      raw,
		Credential:       credential,
		CredentialSource: kind,
		Currency:         domain.DefaultCurrency,
	})
}

// Run is Analyze with the credential source and currency made explicit
func (a *Analyzer) Run(ctx context.Context, req Request) domain.AnalysisResponse {
	providerName := "none"
	if a.provider != nil {
		providerName = a.provider.Name()
	}
	log := a.logger.WithFields(logging.Fields{"provider": providerName})

	if req.CredentialSource == "" {
		req.CredentialSource = domain.CredentialNone
	}
	if req.Currency.Code == "" {
		req.Currency = domain.DefaultCurrency
	}

	credential := strings.TrimSpace(req.Credential)
	if credential == "" || a.provider == nil {
		resp := a.fallback(req.BillingData, domain.ErrNoCredential)
		resp.CredentialSource = domain.CredentialNone
		log.WithFields(logging.Fields{"stage": "key_check", "profile": resp.Profile}).Info("no credential, serving demo data")
		return resp
	}

	result, strategy, err := a.live(ctx, credential, req)
	if err != nil {
		resp := a.fallback(req.BillingData, err)
		resp.CredentialSource = req.CredentialSource
		stage := "remote_call"
		var ae *domain.AnalysisError
		if errors.As(err, &ae) {
			stage = ae.Stage
		}
		log.WithFields(logging.Fields{"stage": stage, "profile": resp.Profile, "reason": resp.Reason}).
			Warn("live analysis failed, serving demo data: %v", err)
		return resp
	}

	log.WithFields(logging.Fields{"stage": "resolve", "strategy": strategy}).Info("live analysis succeeded")
	return domain.AnalysisResponse{
		Result:           result,
		Source:           domain.SourceLive,
		CredentialSource: req.CredentialSource,
	}
}

// live performs the remote call and normalization, converting provider
// panics into transport errors.
func (a *Analyzer) live(ctx context.Context, credential string, req Request) (result domain.AnalysisResult, strategy string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewAnalysisError("remote_call", fmt.Errorf("%w: provider panicked: %v", domain.ErrTransport, r))
		}
	}()

	text, err := a.provider.Complete(ctx, credential, llm.BuildPrompt(req.BillingData, req.Currency))
	if err != nil {
		return result, "", domain.NewAnalysisError("remote_call", err)
	}

	parsed, err := a.parser.Parse(text)
	if err != nil {
		return result, "", domain.NewAnalysisError("parse", err)
	}

	result, err = normalize.Normalize(parsed.Value)
	if err != nil {
		return result, "", domain.NewAnalysisError("validate", err)
	}
	return result, parsed.Strategy, nil
}

func (a *Analyzer) fallback(raw string, cause error) domain.AnalysisResponse {
	profile, result := demo.Select(raw)
	return domain.AnalysisResponse{
		Result:  result,
		Source:  domain.SourceDemo,
		Profile: string(profile),
		Reason:  domain.ReasonFor(cause),
	}
}
