package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"
	"quizprep_backend/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type testStack struct {
	db       *gorm.DB
	userRepo *repository.UserRepository
	quizRepo *repository.QuizRepository
	hosted   *service.HostedService
	quiz     *service.QuizService
	question *service.QuestionService
}

func newTestStack(t *testing.T, completer service.QuizCompleter) *testStack {
	t.Helper()
	db := newTestDB(t)

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	hostedRepo := repository.NewHostedSessionRepository(db)

	generator := service.NewGeneratorService(completer, quizConfig())
	questionService := service.NewQuestionService(questionRepo, generator, nil, nil, quizConfig())
	quizService := service.NewQuizService(quizRepo, hostedRepo, questionService)
	hostedService := service.NewHostedService(hostedRepo, userRepo, questionService)

	return &testStack{
		db:       db,
		userRepo: userRepo,
		quizRepo: quizRepo,
		hosted:   hostedService,
		quiz:     quizService,
		question: questionService,
	}
}

func seedUser(t *testing.T, stack *testStack, name string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "not-a-real-hash",
		Role:     model.Student,
	}
	require.NoError(t, stack.userRepo.Create(user))
	return user
}

func seedQuestion(t *testing.T, db *gorm.DB, text, correct string) *model.Question {
	t.Helper()
	q := &model.Question{
		QuestionText:  text,
		OptionA:       "option a",
		OptionB:       "option b",
		OptionC:       "option c",
		OptionD:       "option d",
		CorrectAnswer: correct,
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

func seedSession(t *testing.T, stack *testStack, userID string, questionIDs []string) *model.QuizSession {
	t.Helper()
	session := &model.QuizSession{
		UserID:        userID,
		Prompt:        "seeded",
		NumQuestions:  len(questionIDs),
		TotalDuration: 600,
	}
	require.NoError(t, stack.quizRepo.CreateSessionWithQuestions(session, questionIDs))
	return session
}

func TestCreateQuizPersistsOrderedQuestions(t *testing.T) {
	items := []service.GeneratedQuestion{
		makeItem("q1?"), makeItem("q2?"), makeItem("q3?"),
		makeItem("q4?"), makeItem("q5?"),
	}
	stack := newTestStack(t, &scriptedCompleter{responses: []string{itemsJSON(t, items)}})
	user := seedUser(t, stack, "alice")

	session, err := stack.quiz.CreateQuiz(context.Background(), user.ID, &service.CreateQuizRequest{
		Prompt:        "5 Go questions",
		NumQuestions:  5,
		TotalDuration: 600,
	})
	require.NoError(t, err)
	require.Equal(t, 5, session.NumQuestions)
	require.Len(t, session.Questions, 5)
	for i, link := range session.Questions {
		require.Equal(t, i+1, link.QuestionOrder)
		require.NotNil(t, link.Question)
	}
}

func TestCreateQuizClampsLowCounts(t *testing.T) {
	completer := &countingCompleter{perCall: 20}
	stack := newTestStack(t, completer)
	user := seedUser(t, stack, "alice")

	session, err := stack.quiz.CreateQuiz(context.Background(), user.ID, &service.CreateQuizRequest{
		Prompt:        "a couple of questions",
		NumQuestions:  2,
		TotalDuration: 600,
	})
	require.NoError(t, err)
	require.Equal(t, 5, session.NumQuestions)
}

func TestCreateQuizShortfallFails(t *testing.T) {
	same := `[{"question":"only one?","options":{"A":"a","B":"b","C":"c","D":"d"},"answer":"A"}]`
	stack := newTestStack(t, &scriptedCompleter{responses: []string{same, same, same, same, same}})
	user := seedUser(t, stack, "alice")

	_, err := stack.quiz.CreateQuiz(context.Background(), user.ID, &service.CreateQuizRequest{
		Prompt:        "5 Go questions",
		NumQuestions:  5,
		TotalDuration: 600,
	})
	require.ErrorIs(t, err, util.ErrGenerationFailed)
}

func TestSubmitQuizGradesAnswers(t *testing.T) {
	stack := newTestStack(t, &scriptedCompleter{})
	user := seedUser(t, stack, "alice")

	q1 := seedQuestion(t, stack.db, "first?", "A")
	q2 := seedQuestion(t, stack.db, "second?", "B")
	q3 := seedQuestion(t, stack.db, "third?", "C")
	session := seedSession(t, stack, user.ID, []string{q1.ID, q2.ID, q3.ID})

	result, err := stack.quiz.SubmitQuiz(session.ID, user.ID, &service.SubmitQuizRequest{
		Answers: map[string]string{
			q1.ID: "A",
			q2.ID: "66", // char code for B
			q3.ID: "D",
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Score)
	require.Equal(t, 3, result.Total)

	reloaded, err := stack.quiz.GetQuiz(session.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.SubmittedAt)
	require.Equal(t, 2, reloaded.Score)

	rows, err := stack.quizRepo.FindAnswersBySession(session.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestSubmitQuizGradesLegacyCharCodeAnswerKey(t *testing.T) {
	stack := newTestStack(t, &scriptedCompleter{})
	user := seedUser(t, stack, "alice")

	// stored answer key is the char code, submitted answer is the letter
	q := seedQuestion(t, stack.db, "legacy?", "66")
	session := seedSession(t, stack, user.ID, []string{q.ID})

	result, err := stack.quiz.SubmitQuiz(session.ID, user.ID, &service.SubmitQuizRequest{
		Answers: map[string]string{q.ID: "b"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.Score)
}

func TestSubmitQuizTwiceRejected(t *testing.T) {
	stack := newTestStack(t, &scriptedCompleter{})
	user := seedUser(t, stack, "alice")

	q := seedQuestion(t, stack.db, "once?", "A")
	session := seedSession(t, stack, user.ID, []string{q.ID})

	_, err := stack.quiz.SubmitQuiz(session.ID, user.ID, &service.SubmitQuizRequest{
		Answers: map[string]string{q.ID: "A"},
	})
	require.NoError(t, err)

	_, err = stack.quiz.SubmitQuiz(session.ID, user.ID, &service.SubmitQuizRequest{
		Answers: map[string]string{q.ID: "B"},
	})
	require.ErrorIs(t, err, util.ErrAlreadySubmitted)
}

func TestSubmitQuizUnknownQuestionFailsWhole(t *testing.T) {
	stack := newTestStack(t, &scriptedCompleter{})
	user := seedUser(t, stack, "alice")

	q := seedQuestion(t, stack.db, "known?", "A")
	stray := seedQuestion(t, stack.db, "stray?", "B")
	session := seedSession(t, stack, user.ID, []string{q.ID})

	_, err := stack.quiz.SubmitQuiz(session.ID, user.ID, &service.SubmitQuizRequest{
		Answers: map[string]string{
			q.ID:     "A",
			stray.ID: "B",
		},
	})
	require.ErrorIs(t, err, util.ErrQuestionNotFound)

	// the transaction must roll everything back
	reloaded, err := stack.quiz.GetQuiz(session.ID, user.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.SubmittedAt)
	rows, err := stack.quizRepo.FindAnswersBySession(session.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestStartQuizIdempotent(t *testing.T) {
	stack := newTestStack(t, &scriptedCompleter{})
	user := seedUser(t, stack, "alice")

	q := seedQuestion(t, stack.db, "start?", "A")
	session := seedSession(t, stack, user.ID, []string{q.ID})

	first, err := stack.quiz.StartQuiz(session.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, first.StartedAt)

	second, err := stack.quiz.StartQuiz(session.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, first.StartedAt.Unix(), second.StartedAt.Unix())
}

func TestGetQuizOwnershipEnforced(t *testing.T) {
	stack := newTestStack(t, &scriptedCompleter{})
	alice := seedUser(t, stack, "alice")
	bob := seedUser(t, stack, "bob")

	q := seedQuestion(t, stack.db, "private?", "A")
	session := seedSession(t, stack, alice.ID, []string{q.ID})

	_, err := stack.quiz.GetQuiz(session.ID, bob.ID)
	require.ErrorIs(t, err, util.ErrSessionNotFound)
}
