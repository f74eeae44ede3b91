// Package inmemdb provides mutex-guarded in-memory repositories.
// It backs tests and local development; the sqlx repositories are the real deal.
package inmemdb

import (
	"strings"
	"sync"

	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	courses     map[string]*course.Course
	assignments map[string]*assignment.Assignment
	submissions map[string]*submission.Submission
	attendance  map[string]*attendance.Attendance
}

func Open() *DB {
	db := new(DB)
	db.reset()
	return db
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.assignments = make(map[string]*assignment.Assignment)
	db.submissions = make(map[string]*submission.Submission)
	db.attendance = make(map[string]*attendance.Attendance)
}

// searchMatch does a case-insensitive substring match of search in any of attrs.
func searchMatch(search string, attrs ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, attr := range attrs {
		if strings.Contains(strings.ToLower(attr), search) {
			return true
		}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
