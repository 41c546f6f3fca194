package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mini-lms/internal/app"
	"mini-lms/internal/config"
	"mini-lms/internal/domain"
	"mini-lms/internal/infra/filestore"
	"mini-lms/internal/infra/memory"
	"mini-lms/internal/infra/postgres"
	infraredis "mini-lms/internal/infra/redis"
	"mini-lms/internal/logging"
	transport "mini-lms/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the LMS server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backend holds the repositories the services run on.
type backend struct {
	catalog     app.CatalogRepository
	users       app.UserRepository
	progress    app.ProgressRepository
	attempts    app.AttemptRepository
	enrollments app.EnrollmentRepository
	definitions app.DefinitionStore
	close       func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Postgres.URL != "" {
		if err := applyMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := newBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	handler := newHandler(b, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting lms server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newHandler(b backend, log logrus.FieldLogger) http.Handler {
	quizzes := app.NewQuizService(b.catalog, b.definitions, b.attempts, log)
	progress := app.NewProgressService(b.catalog, b.progress, b.attempts, b.enrollments)
	enrollment := app.NewEnrollmentService(b.users, b.catalog, b.enrollments)
	learner := app.NewLearnerService(enrollment, progress, quizzes, b.catalog)
	authoring := app.NewAuthoringService(b.users, b.catalog, quizzes, progress)
	return transport.NewRouter(transport.NewAPI(learner, authoring, log), transport.NewActivityHandler(learner, log))
}

// newBackend picks Postgres when configured, else in-memory stores seeded with a demo course.
// Definitions live on disk when definitions.dir is set, else next to the relational data;
// they are cached in Redis when redis.addr is set, else in process.
func newBackend(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (backend, error) {
	b := backend{close: func() {}}

	var source app.DefinitionStore
	if cfg.Definitions.Dir != "" {
		source = filestore.NewDefinitionStore(cfg.Definitions.Dir)
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return backend{}, err
		}
		b.catalog = postgres.NewCatalogRepository(pool)
		b.users = postgres.NewUserRepository(pool)
		b.progress = postgres.NewProgressRepository(pool)
		b.attempts = postgres.NewAttemptRepository(pool)
		b.enrollments = postgres.NewEnrollmentRepository(pool)
		if source == nil {
			source = postgres.NewDefinitionStore(pool)
		}
		b.close = pool.Close
	} else {
		if source == nil {
			source = memory.NewDefinitionStore(nil)
		}
		catalog := memory.NewCatalog()
		users := memory.NewUserStore()
		if err := seedDemo(ctx, catalog, users, source); err != nil {
			return backend{}, err
		}
		log.Warn("postgres not configured, using in-memory stores with demo data")
		b.catalog = catalog
		b.users = users
		b.progress = memory.NewProgressStore()
		b.attempts = memory.NewAttemptStore()
		b.enrollments = memory.NewEnrollmentStore()
	}

	ttl := config.TTLDuration(cfg.Definitions.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closePool := b.close
		b.close = func() {
			_ = client.Close()
			closePool()
		}
		b.definitions = infraredis.NewDefinitionCache(client, source, config.TTLDuration(cfg.Redis.TTL, ttl), log)
	} else {
		b.definitions = memory.NewDefinitionCache(source, ttl)
	}
	return b, nil
}

const demoDefinition = `{
	"passing_score": 50,
	"questions": [
		{"question": "Which chamber pumps blood into the aorta?", "choices": ["Right atrium", "Left ventricle", "Right ventricle"], "answer": 1},
		{"question": "Normal resting heart rate (bpm)?", "choices": ["20-40", "60-100", "120-160"], "answer": 1}
	]
}`

// seedDemo provides a minimal course for the in-memory backend: teacher 1, student 2
// (medicine, year 3) and one lesson with a resource and a quiz.
func seedDemo(ctx context.Context, catalog *memory.Catalog, users *memory.UserStore, defs app.DefinitionStore) error {
	users.Put(domain.User{ID: 1, Email: "teacher@example.com", Role: domain.RoleTeacher})
	users.Put(domain.User{ID: 2, Email: "student@example.com", Role: domain.RoleStudent, Specialty: "Medicine", StudyYear: "3"})

	course, err := catalog.CreateCourse(ctx, domain.Course{
		TeacherID:  1,
		Title:      "Cardiology basics",
		Specialty:  "Medicine",
		TargetYear: 3,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	lesson, err := catalog.CreateLesson(ctx, domain.Lesson{CourseID: course.ID, Title: "The heart", SortOrder: 1})
	if err != nil {
		return err
	}
	if _, err := catalog.CreateResource(ctx, domain.Resource{LessonID: lesson.ID, Title: "Anatomy slides", FilePath: "resources/heart.pdf", FileType: "pdf"}); err != nil {
		return err
	}
	ref, err := defs.Store(ctx, []byte(demoDefinition))
	if err != nil {
		return err
	}
	_, err = catalog.CreateQuiz(ctx, domain.Quiz{LessonID: lesson.ID, Title: "Heart check", DefinitionRef: ref})
	return err
}
