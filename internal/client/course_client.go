package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/parikshasetu/exam-platform/internal/models"
)

// CourseClient reads enrollments from the course service.
type CourseClient struct {
	peer peer
}

// NewCourseClient constructs a course service client.
func NewCourseClient(baseURL string, opts Options) *CourseClient {
	return &CourseClient{peer: newPeer("course-service", baseURL, opts)}
}

// StudentEnrollments returns every enrollment of the student, any status.
func (c *CourseClient) StudentEnrollments(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	res, err := c.peer.do(ctx, http.MethodGet, "/api/courses/my/"+url.PathEscape(studentID), nil, true)
	if err != nil {
		return nil, err
	}
	if res.status != http.StatusOK {
		return nil, &StatusError{Peer: c.peer.name, Status: res.status}
	}
	enrollments := []models.Enrollment{}
	if err := decodeData(res.body, &enrollments); err != nil {
		return nil, fmt.Errorf("decode course enrollments: %w", err)
	}
	return enrollments, nil
}
