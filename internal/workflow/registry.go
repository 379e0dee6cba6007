package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"podnplay/internal/models"
	"podnplay/internal/notify"
)

// Draft is the podcast form around one workflow. It holds what the
// workflow reported plus the form inputs that survive a page reload.
type Draft struct {
	ID       string
	UserID   int64
	Workflow *Workflow
	Notices  *notify.Recorder

	mu          sync.Mutex
	audio       models.Audio
	voiceType   string
	voicePrompt string
}

// Audio returns the last audio the workflow reported.
func (d *Draft) Audio() models.Audio {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.audio
}

func (d *Draft) setAudio(a models.Audio) {
	d.mu.Lock()
	d.audio = a
	d.mu.Unlock()
}

func (d *Draft) SetVoice(voiceType, prompt string) {
	d.mu.Lock()
	d.voiceType = voiceType
	d.voicePrompt = prompt
	d.mu.Unlock()
}

func (d *Draft) Voice() (voiceType, prompt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voiceType, d.voicePrompt
}

// Registry keeps drafts in memory until they are submitted or expire.
// An expired draft's in-flight operation is canceled.
type Registry struct {
	svc    Services
	drafts *cache.Cache
}

func NewRegistry(svc Services, ttl time.Duration) *Registry {
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(_ string, v interface{}) {
		if d, ok := v.(*Draft); ok {
			d.Workflow.Cancel()
		}
	})
	return &Registry{svc: svc, drafts: c}
}

// Create starts a new draft for userID.
func (r *Registry) Create(userID int64) *Draft {
	d := &Draft{
		ID:      uuid.NewString(),
		UserID:  userID,
		Notices: &notify.Recorder{},
	}
	d.Workflow = New(r.svc, userID, d.Notices, d.setAudio)
	r.drafts.SetDefault(d.ID, d)
	return d
}

// Get returns the draft with id if it belongs to userID, refreshing its expiry.
func (r *Registry) Get(id string, userID int64) (*Draft, bool) {
	v, ok := r.drafts.Get(id)
	if !ok {
		return nil, false
	}
	d := v.(*Draft)
	if d.UserID != userID {
		return nil, false
	}
	r.drafts.SetDefault(id, d)
	return d, true
}

// Discard removes a draft and cancels anything it still runs.
func (r *Registry) Discard(id string) {
	r.drafts.Delete(id)
}
