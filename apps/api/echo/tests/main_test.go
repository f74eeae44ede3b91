package tests

import (
	"log"
	"os"
	"testing"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	testutil "github.com/trezcool/shule/tests"
)

var (
	conf *core.Config
	db   *inmemdb.DB
	app  echoapi.Server

	usrRepo user.Repository
	crsRepo course.Repository
	asgRepo assignment.Repository
	subRepo submission.Repository
	attRepo attendance.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf = testutil.NewConfig()
	conf.Debug = false // keep error responses production-shaped

	// set up DB & repos
	db = inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo = inmemdb.NewCourseRepository(db)
	asgRepo = inmemdb.NewAssignmentRepository(db)
	subRepo = inmemdb.NewSubmissionRepository(db)
	attRepo = inmemdb.NewAttendanceRepository(db)

	// set up services
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TESTS : ", log.LstdFlags), conf)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewServiceMock(conf, usrRepo, mailSvc)
	crsSvc := course.NewService(crsRepo)
	asgSvc := assignment.NewService(asgRepo)
	subSvc := submission.NewService(subRepo, asgRepo)
	attSvc := attendance.NewService(attRepo, crsRepo)
	engine := access.NewEngine(usrRepo, crsRepo, asgRepo, subRepo)

	// set up server
	app = echoapi.NewServer(
		&echoapi.Options{
			DisableReqLogs: true,
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			AssignmentSvc:  asgSvc,
			SubmissionSvc:  subSvc,
			AttendanceSvc:  attSvc,
			Engine:         engine,
		},
	)

	os.Exit(m.Run())
}

// resetDB empties all tables between tests.
func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
}

// fixture is the base cast shared by the resource tests:
// two teachers with a course each and one student enrolled in each course.
type fixture struct {
	admin, teacher1, teacher2, student1, student2 user.User

	course1, course2 course.Course
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	resetDB(t)

	fix := fixture{
		admin:    testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin, user.StatusActive),
		teacher1: testutil.CreateUser(t, usrRepo, "Teach One", "teach1", "teach1@test.cd", "", user.RoleTeacher, user.StatusActive),
		teacher2: testutil.CreateUser(t, usrRepo, "Teach Two", "teach2", "teach2@test.cd", "", user.RoleTeacher, user.StatusActive),
		student1: testutil.CreateUser(t, usrRepo, "Stud One", "stud1", "stud1@test.cd", "", user.RoleStudent, user.StatusActive),
		student2: testutil.CreateUser(t, usrRepo, "Stud Two", "stud2", "stud2@test.cd", "", user.RoleStudent, user.StatusActive),
	}
	fix.course1 = testutil.CreateCourse(t, crsRepo, "Algebra", fix.teacher1.ID, course.StatusActive, fix.student1.ID)
	fix.course2 = testutil.CreateCourse(t, crsRepo, "Biology", fix.teacher2.ID, course.StatusActive, fix.student2.ID)
	return fix
}
