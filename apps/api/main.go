package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	appLogger := logsvc.NewRollbarLogger(std, conf)
	appLogger.Enable(!(conf.Debug || conf.TestMode))

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		appLogger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		appLogger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()
	if err = database.Migrate(db); err != nil {
		appLogger.Fatal("migrating database", err)
	}

	// set up repos
	usrRepo := sqlxrepos.NewUserRepository(db)
	crsRepo := sqlxrepos.NewCourseRepository(db)
	asgRepo := sqlxrepos.NewAssignmentRepository(db)
	subRepo := sqlxrepos.NewSubmissionRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, appLogger)
	}

	usrSvc := user.NewService(conf, usrRepo, mailSvc)
	crsSvc := course.NewService(crsRepo)
	asgSvc := assignment.NewService(asgRepo)
	subSvc := submission.NewService(subRepo, asgRepo)
	attSvc := attendance.NewService(attRepo, crsRepo)
	engine := access.NewEngine(usrRepo, crsRepo, asgRepo, subRepo)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:        conf.Server.Addr(),
			Conf:           conf,
			Logger:         appLogger,
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			AssignmentSvc:  asgSvc,
			SubmissionSvc:  subSvc,
			AttendanceSvc:  attSvc,
			Engine:         engine,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		},
	)

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- app.Start() }()

	select {
	case err := <-serverErrors:
		appLogger.Fatal("server error", err)
	case sig := <-shutdown:
		appLogger.Info("shutting down", map[string]interface{}{"signal": sig.String()})

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Stop(ctx); err != nil {
			appLogger.Error("could not stop server gracefully", err)
		}
	}
}
