package service

import (
	"net/http"
)

func (s *service) endpointVersion(writer http.ResponseWriter, _ *http.Request) {
	handleResponse(writer, nil, map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"git_branch": GitBranch,
	})
}

func (s *service) endpointCacheClear(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			handleResponse(writer, err, nil)
			return
		}
		s.Trace(ctx, "executed cache_clear")
	}
	handleResponse(writer, nil, nil)
}

func (s *service) endpointCacheCountersRead(writer http.ResponseWriter, _ *http.Request) {
	if s.Counter == nil {
		handleResponse(writer, nil, nil)
		return
	}
	handleResponse(writer, nil, s.Counter.ReadAll())
}

func (s *service) endpointCacheCountersClear(writer http.ResponseWriter, request *http.Request) {
	if s.Counter != nil {
		s.Counter.Reset()
	}
	handleResponse(writer, nil, nil)
	s.Trace(request.Context(), "executed cache_counters_clear")
}

func (s *service) endpointTimersRead(writer http.ResponseWriter, _ *http.Request) {
	if s.Timers == nil {
		handleResponse(writer, nil, nil)
		return
	}
	handleResponse(writer, nil, s.Timers.ReadAll())
}

func (s *service) endpointTimersClear(writer http.ResponseWriter, request *http.Request) {
	if s.Timers != nil {
		s.Timers.Clear()
	}
	handleResponse(writer, nil, nil)
	s.Trace(request.Context(), "executed timers_clear")
}
