package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quizprep_backend/internal/model"
	"quizprep_backend/internal/service"
	"quizprep_backend/internal/util"
)

func fiveQuestionCompleter(t *testing.T) *scriptedCompleter {
	t.Helper()
	items := []service.GeneratedQuestion{
		makeItem("h1?"), makeItem("h2?"), makeItem("h3?"),
		makeItem("h4?"), makeItem("h5?"),
	}
	return &scriptedCompleter{responses: []string{itemsJSON(t, items)}}
}

func createRoom(t *testing.T, stack *testStack, hostID string, spots int) *model.HostedSession {
	t.Helper()
	room, err := stack.hosted.CreateRoom(context.Background(), hostID, &service.CreateRoomRequest{
		Title:         "friday drill",
		Prompt:        "5 Go questions",
		NumQuestions:  5,
		TotalDuration: 600,
		TotalSpots:    spots,
	})
	require.NoError(t, err)
	return room
}

// answerAll builds a full answer map for the participant's private session.
// wrong answers are given for the last `miss` questions.
func answerAll(t *testing.T, stack *testStack, sessionID, userID string, miss int) *service.SubmitQuizRequest {
	t.Helper()
	session, err := stack.quiz.GetQuiz(sessionID, userID)
	require.NoError(t, err)

	answers := make(map[string]string, len(session.Questions))
	for i, link := range session.Questions {
		correct := util.NormalizeAnswerLetter(link.Question.CorrectAnswer)
		if i >= len(session.Questions)-miss {
			if correct == "A" {
				answers[link.Question.ID] = "B"
			} else {
				answers[link.Question.ID] = "A"
			}
		} else {
			answers[link.Question.ID] = correct
		}
	}
	return &service.SubmitQuizRequest{Answers: answers}
}

func TestJoinRoomCreatesPrivateCopy(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	room := createRoom(t, stack, host.ID, 10)

	result, err := stack.hosted.JoinRoom(room.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, room.ID, result.RoomID)

	session, err := stack.quiz.GetQuiz(result.QuizSessionID, bob.ID)
	require.NoError(t, err)
	require.Len(t, session.Questions, 5)
	require.Equal(t, room.ID, session.HostedSessionID)
	for i, link := range session.Questions {
		require.Equal(t, i+1, link.QuestionOrder)
	}

	reloaded, err := stack.hosted.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.CurrentParticipants)
}

func TestJoinRoomTwiceRejected(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	room := createRoom(t, stack, host.ID, 10)

	_, err := stack.hosted.JoinRoom(room.ID, bob.ID)
	require.NoError(t, err)

	_, err = stack.hosted.JoinRoom(room.ID, bob.ID)
	require.ErrorIs(t, err, util.ErrAlreadyJoined)

	reloaded, err := stack.hosted.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.CurrentParticipants)
}

func TestJoinRoomCapacityEnforced(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	carol := seedUser(t, stack, "carol")
	room := createRoom(t, stack, host.ID, 1)

	_, err := stack.hosted.JoinRoom(room.ID, bob.ID)
	require.NoError(t, err)

	_, err = stack.hosted.JoinRoom(room.ID, carol.ID)
	require.ErrorIs(t, err, util.ErrRoomFull)
}

func TestJoinRoomConcurrentCapacityRace(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	// sqlite's shared cache deadlocks on two concurrent write transactions;
	// a single pooled connection keeps them serialized
	sqlDB, err := stack.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	carol := seedUser(t, stack, "carol")
	room := createRoom(t, stack, host.ID, 1)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, uid := range []string{bob.ID, carol.ID} {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, joinErr := stack.hosted.JoinRoom(room.ID, uid)
			errs <- joinErr
		}(uid)
	}
	wg.Wait()
	close(errs)

	var joined, rejected int
	for joinErr := range errs {
		switch {
		case joinErr == nil:
			joined++
		case errors.Is(joinErr, util.ErrRoomFull):
			rejected++
		default:
			t.Fatalf("unexpected join error: %v", joinErr)
		}
	}
	require.Equal(t, 1, joined)
	require.Equal(t, 1, rejected)

	reloaded, err := stack.hosted.GetRoom(room.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.CurrentParticipants)
}

func TestJoinEndedRoomRejected(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	room := createRoom(t, stack, host.ID, 10)

	_, err := stack.hosted.EndRoom(room.ID, host.ID)
	require.NoError(t, err)

	_, err = stack.hosted.JoinRoom(room.ID, bob.ID)
	require.ErrorIs(t, err, util.ErrRoomInactive)
}

func TestStartRoomHostOnlyAndOneShot(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	room := createRoom(t, stack, host.ID, 10)

	_, err := stack.hosted.StartRoom(room.ID, bob.ID)
	require.ErrorIs(t, err, util.ErrNotHost)

	started, err := stack.hosted.StartRoom(room.ID, host.ID)
	require.NoError(t, err)
	require.NotNil(t, started.StartedAt)

	_, err = stack.hosted.StartRoom(room.ID, host.ID)
	require.ErrorIs(t, err, util.ErrAlreadyStarted)
}

func TestEndRoomHostOnly(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	room := createRoom(t, stack, host.ID, 10)

	_, err := stack.hosted.EndRoom(room.ID, bob.ID)
	require.ErrorIs(t, err, util.ErrNotHost)

	ended, err := stack.hosted.EndRoom(room.ID, host.ID)
	require.NoError(t, err)
	require.False(t, ended.IsActive)
	require.NotNil(t, ended.EndedAt)
}

func TestLeaderboardRanksAndRoomCloses(t *testing.T) {
	stack := newTestStack(t, fiveQuestionCompleter(t))
	host := seedUser(t, stack, "host")
	bob := seedUser(t, stack, "bob")
	carol := seedUser(t, stack, "carol")
	dave := seedUser(t, stack, "dave")
	room := createRoom(t, stack, host.ID, 10)

	joinBob, err := stack.hosted.JoinRoom(room.ID, bob.ID)
	require.NoError(t, err)
	joinCarol, err := stack.hosted.JoinRoom(room.ID, carol.ID)
	require.NoError(t, err)
	joinDave, err := stack.hosted.JoinRoom(room.ID, dave.ID)
	require.NoError(t, err)

	// bob: 5/5 first, carol: 5/5 later, dave: 3/5
	_, err = stack.quiz.SubmitQuiz(joinBob.QuizSessionID, bob.ID, answerAll(t, stack, joinBob.QuizSessionID, bob.ID, 0))
	require.NoError(t, err)

	midway, err := stack.hosted.GetRoom(room.ID)
	require.NoError(t, err)
	require.True(t, midway.IsActive)

	time.Sleep(5 * time.Millisecond)
	_, err = stack.quiz.SubmitQuiz(joinCarol.QuizSessionID, carol.ID, answerAll(t, stack, joinCarol.QuizSessionID, carol.ID, 0))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = stack.quiz.SubmitQuiz(joinDave.QuizSessionID, dave.ID, answerAll(t, stack, joinDave.QuizSessionID, dave.ID, 2))
	require.NoError(t, err)

	view, err := stack.hosted.GetLeaderboard(room.ID)
	require.NoError(t, err)
	require.Len(t, view.Entries, 3)

	// ties on score break by earlier submission, positions are dense 1..N
	require.Equal(t, []int{1, 2, 3}, []int{view.Entries[0].Position, view.Entries[1].Position, view.Entries[2].Position})
	require.Equal(t, "bob", view.Entries[0].UserName)
	require.Equal(t, 5, view.Entries[0].Score)
	require.Equal(t, "carol", view.Entries[1].UserName)
	require.Equal(t, 5, view.Entries[1].Score)
	require.Equal(t, "dave", view.Entries[2].UserName)
	require.Equal(t, 3, view.Entries[2].Score)

	// everyone has submitted, so the room is closed
	closed, err := stack.hosted.GetRoom(room.ID)
	require.NoError(t, err)
	require.False(t, closed.IsActive)
	require.NotNil(t, closed.EndedAt)
	require.False(t, view.IsActive)
}
