package service

import "github.com/coursesphere/coursesphere-api/internal/core/ports"

type nopMetrics struct{}

func (nopMetrics) AuthAttempt(string, string)          {}
func (nopMetrics) InvitationTransition(string, string) {}
func (nopMetrics) CourseMutation(string)               {}
func (nopMetrics) LessonMutation(string)               {}

// orNop lets callers pass a nil recorder.
func orNop(m ports.Metrics) ports.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
