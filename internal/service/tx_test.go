package service

import "context"

type testTxRepos struct {
	entries     EntryRepositoryInterface
	sources     SourceRepositoryInterface
	summaryJobs SummaryJobRepositoryInterface
}

func (t *testTxRepos) Entries() EntryRepositoryInterface {
	return t.entries
}

func (t *testTxRepos) Sources() SourceRepositoryInterface {
	return t.sources
}

func (t *testTxRepos) SummaryJobs() SummaryJobRepositoryInterface {
	return t.summaryJobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}
