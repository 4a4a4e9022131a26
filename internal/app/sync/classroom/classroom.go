// internal/app/sync/classroom/classroom.go

// Package classroom translates Google Classroom courses and coursework into
// Astren's provider-neutral task shapes.
package classroom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appsync "github.com/astren-app/astren/internal/app/sync"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const apiBase = "https://classroom.googleapis.com/v1"

// Adapter talks to Google Classroom on behalf of one OAuth token.
type Adapter struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// BaseURL overrides apiBase in tests.
	BaseURL string
}

// IsConfigured returns true if Classroom OAuth is configured.
func (a *Adapter) IsConfigured() bool {
	return a.ClientID != "" && a.ClientSecret != ""
}

func (a *Adapter) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURL:  a.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/classroom.courses.readonly",
			"https://www.googleapis.com/auth/classroom.coursework.me",
		},
		Endpoint: google.Endpoint,
	}
}

// AuthURL returns the consent-screen URL carrying state.
func (a *Adapter) AuthURL(state string) string {
	return a.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange swaps the authorization code for a token.
func (a *Adapter) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return a.oauth2Config().Exchange(ctx, code)
}

func (a *Adapter) base() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return apiBase
}

func (a *Adapter) client(ctx context.Context, token *oauth2.Token) *http.Client {
	return a.oauth2Config().Client(ctx, token)
}

// ListCourses fetches the user's active courses.
func (a *Adapter) ListCourses(ctx context.Context, token *oauth2.Token) ([]appsync.RemoteCourse, error) {
	var out struct {
		Courses []struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Section string `json:"section"`
		} `json:"courses"`
	}
	if err := a.get(ctx, token, "/courses?courseStates=ACTIVE", &out); err != nil {
		return nil, err
	}

	courses := make([]appsync.RemoteCourse, 0, len(out.Courses))
	for _, c := range out.Courses {
		courses = append(courses, appsync.RemoteCourse{
			RemoteID: c.ID,
			Nombre:   c.Name,
			Seccion:  c.Section,
		})
	}
	return courses, nil
}

// ListTasks fetches the coursework of one course as tasks. Classroom due
// dates are date + optional time-of-day fields, folded here into a single
// UTC timestamp.
func (a *Adapter) ListTasks(ctx context.Context, token *oauth2.Token, courseID string) ([]appsync.RemoteTask, error) {
	var out struct {
		CourseWork []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			State       string `json:"state"`
			DueDate     *struct {
				Year  int `json:"year"`
				Month int `json:"month"`
				Day   int `json:"day"`
			} `json:"dueDate"`
			DueTime *struct {
				Hours   int `json:"hours"`
				Minutes int `json:"minutes"`
			} `json:"dueTime"`
		} `json:"courseWork"`
	}
	if err := a.get(ctx, token, "/courses/"+courseID+"/courseWork", &out); err != nil {
		return nil, err
	}

	tasks := make([]appsync.RemoteTask, 0, len(out.CourseWork))
	for _, cw := range out.CourseWork {
		rt := appsync.RemoteTask{
			RemoteID:    cw.ID,
			Titulo:      cw.Title,
			Descripcion: cw.Description,
		}
		if cw.DueDate != nil {
			hh, mm := 23, 59
			if cw.DueTime != nil {
				hh, mm = cw.DueTime.Hours, cw.DueTime.Minutes
			}
			due := time.Date(cw.DueDate.Year, time.Month(cw.DueDate.Month), cw.DueDate.Day, hh, mm, 0, 0, time.UTC)
			rt.VenceEn = &due
		}
		tasks = append(tasks, rt)
	}
	return tasks, nil
}

// CreateTask publishes coursework in a course. Requires a teacher token.
func (a *Adapter) CreateTask(ctx context.Context, token *oauth2.Token, courseID string, task appsync.RemoteTask) error {
	payload := map[string]any{
		"title":       task.Titulo,
		"description": task.Descripcion,
		"workType":    "ASSIGNMENT",
		"state":       "PUBLISHED",
	}
	if task.VenceEn != nil {
		due := task.VenceEn.UTC()
		payload["dueDate"] = map[string]int{
			"year":  due.Year(),
			"month": int(due.Month()),
			"day":   due.Day(),
		}
		payload["dueTime"] = map[string]int{
			"hours":   due.Hour(),
			"minutes": due.Minute(),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.base()+"/courses/"+courseID+"/courseWork", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client(ctx, token).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classroom: create coursework: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (a *Adapter) get(ctx context.Context, token *oauth2.Token, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base()+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client(ctx, token).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classroom: GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
