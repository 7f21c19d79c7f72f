package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"gorm.io/gorm"

	"quizprep_backend/internal/model"
	"quizprep_backend/internal/repository"
	"quizprep_backend/internal/util"
)

// maxResumeChars bounds how much extracted text goes into the generation
// prompt.
const maxResumeChars = 5000

type GenerateFromResumeRequest struct {
	ResumeID      string  `json:"resumeId" binding:"required"`
	NumQuestions  int     `json:"numQuestions"`
	TotalDuration float64 `json:"totalDuration"`
}

type ResumeService struct {
	resumeRepo  *repository.ResumeRepository
	storage     StorageProvider
	quizService *QuizService
}

func NewResumeService(resumeRepo *repository.ResumeRepository, storage StorageProvider, quizService *QuizService) *ResumeService {
	return &ResumeService{
		resumeRepo:  resumeRepo,
		storage:     storage,
		quizService: quizService,
	}
}

// Upload stores the file and extracts its text for later generation. PDF,
// DOCX and plain text are supported.
func (s *ResumeService) Upload(ctx context.Context, userID string, header *multipart.FileHeader) (*model.Resume, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	content, err := extractText(header.Filename, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, util.ErrResumeEmpty
	}

	objectName := fmt.Sprintf("resumes/%s/%s", userID, model.GenerateUUID()+filepath.Ext(header.Filename))
	url, err := s.storage.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), header.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	resume := &model.Resume{
		UserID:   userID,
		Filename: header.Filename,
		FileURL:  url,
		Content:  content,
	}
	if err := s.resumeRepo.Create(resume); err != nil {
		return nil, err
	}
	return resume, nil
}

func (s *ResumeService) List(userID string) ([]model.Resume, error) {
	return s.resumeRepo.ListByUser(userID)
}

// GenerateQuiz builds a quiz session from the resume's extracted text.
func (s *ResumeService) GenerateQuiz(ctx context.Context, userID string, req *GenerateFromResumeRequest) (*model.QuizSession, error) {
	resume, err := s.resumeRepo.FindByID(req.ResumeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResumeNotFound
		}
		return nil, err
	}
	if resume.UserID != userID {
		return nil, util.ErrResumeNotFound
	}

	content := truncateOnRuneBoundary(resume.Content, maxResumeChars)
	count := req.NumQuestions
	if count <= 0 {
		count = defaultQuestionCount
	}

	prompt := fmt.Sprintf(
		"Generate %d interview questions based on the skills, projects and experience in this resume:\n\n%s",
		count, content)

	return s.quizService.CreateQuiz(ctx, userID, &CreateQuizRequest{
		Prompt:        prompt,
		NumQuestions:  count,
		TotalDuration: req.TotalDuration,
		Topic:         "Resume",
	})
}

// truncateOnRuneBoundary cuts s to at most max bytes without splitting a
// multi-byte character.
func truncateOnRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func extractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDFText(data)
	case ".docx":
		return extractDocxText(data)
	case ".txt", ".md":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDocxText pulls the w:t runs out of word/document.xml.
func extractDocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("document.xml not found in docx")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var sb strings.Builder
	decoder := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
