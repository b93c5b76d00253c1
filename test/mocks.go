package test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wardrobewiz/services"

	"github.com/hibiken/asynq"
)

type IdentityMock struct {
	Identity *services.Identity
	Err      error
}

func (m IdentityMock) verify(provider string) (*services.Identity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Identity == nil {
		return &services.Identity{Provider: provider, Subject: "12232", Email: "email@example.com", EmailVerified: true, Name: "OurName", Picture: "pictureurl"}, nil
	}
	identity := *m.Identity
	identity.Provider = provider
	return &identity, nil
}

func (m IdentityMock) VerifyGoogle(ctx context.Context, idToken string) (*services.Identity, error) {
	return m.verify("google")
}

func (m IdentityMock) VerifyFirebase(ctx context.Context, idToken string) (*services.Identity, error) {
	return m.verify("firebase")
}

func (m IdentityMock) VerifyApple(ctx context.Context, authorizationCode string) (*services.Identity, error) {
	return m.verify("apple")
}

// StorageMock keeps objects in memory. FailDeletes makes every delete
// fail and leaves the objects in place.
type StorageMock struct {
	mu          sync.Mutex
	Objects     map[string][]byte
	FailUploads bool
	FailDeletes bool
}

func NewStorageMock() *StorageMock {
	return &StorageMock{Objects: map[string][]byte{}}
}

func (s *StorageMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (s *StorageMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {
	return "https://storage.test/upload/" + fileName, nil
}

func (s *StorageMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return "https://storage.test/" + fileKey, nil
}

func (s *StorageMock) UploadObject(ctx context.Context, bucketName, key string, body []byte, contentType string) (string, error) {
	if s.FailUploads {
		return "", errors.New("upload refused")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = append([]byte(nil), body...)
	return key, nil
}

func (s *StorageMock) DownloadObject(ctx context.Context, bucketName, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return data, nil
}

func (s *StorageMock) DeleteObject(ctx context.Context, bucketName, key string) error {
	if s.FailDeletes {
		return errors.New("delete refused")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

func (s *StorageMock) ListObjects(ctx context.Context, bucketName, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := []string{}
	for key := range s.Objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *StorageMock) DeleteFolder(ctx context.Context, bucketName, prefix string) error {
	if err := services.ValidateFolderPrefix(prefix); err != nil {
		return err
	}
	keys, _ := s.ListObjects(ctx, bucketName, prefix)
	for _, key := range keys {
		if err := s.DeleteObject(ctx, bucketName, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *StorageMock) Keys() []string {
	keys, _ := s.ListObjects(context.Background(), "", "")
	return keys
}

type URLCacheMock struct{}

func (URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return "https://cache.test/" + objectKey, nil
}

// LLMProcessorMock answers from Replies keyed by request kind. Handler,
// when set, takes precedence.
type LLMProcessorMock struct {
	mu      sync.Mutex
	Replies map[string]string
	Handler func(request services.LLMRequest) (string, error)
	Calls   []services.LLMRequest
}

func (m *LLMProcessorMock) GenerateJSON(ctx context.Context, request services.LLMRequest, modelName services.LLMModelName) (*services.LLMResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, request)
	handler := m.Handler
	reply, ok := m.Replies[request.Kind]
	m.mu.Unlock()

	if handler != nil {
		text, err := handler(request)
		if err != nil {
			return nil, err
		}
		return &services.LLMResponse{Response: text, Model: modelName.String(), IsTest: true}, nil
	}
	if !ok {
		return nil, fmt.Errorf("no scripted reply for %s", request.Kind)
	}
	return &services.LLMResponse{Response: reply, Model: modelName.String(), TotalTokenCount: 100, IsTest: true}, nil
}

func (m *LLMProcessorMock) CallCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, call := range m.Calls {
		if call.Kind == kind {
			n++
		}
	}
	return n
}

type EnqueuerMock struct {
	mu    sync.Mutex
	Tasks []*asynq.Task
	Err   error
}

func (m *EnqueuerMock) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks = append(m.Tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprint(len(m.Tasks)), Type: task.Type(), Queue: "media"}, nil
}

func (m *EnqueuerMock) TaskTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Tasks))
	for _, task := range m.Tasks {
		types = append(types, task.Type())
	}
	return types
}
