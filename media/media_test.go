package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier(t *testing.T) {
	var notifier Notifier
	first, second := []Change{}, []Change{}

	unsubscribeFirst := notifier.Subscribe(func(c Change) { first = append(first, c) })
	notifier.Subscribe(func(c Change) { second = append(second, c) })

	notifier.Notify(ChangeFlags | ChangeState)
	notifier.Notify(ChangeNone)
	unsubscribeFirst()
	notifier.NotifyEach(ChangeVolume | ChangePosition)

	assert.Equal(t, []Change{ChangeFlags | ChangeState}, first)
	assert.Equal(t, []Change{ChangeFlags | ChangeState, ChangePosition, ChangeVolume}, second)
}

func TestNotifierUnsubscribeDuringNotify(t *testing.T) {
	var notifier Notifier
	calls := 0
	var unsubscribe func()
	unsubscribe = notifier.Subscribe(func(Change) {
		calls++
		unsubscribe()
	})
	notifier.Notify(ChangeName)
	notifier.Notify(ChangeName)
	assert.Equal(t, 1, calls)
}

func TestChangeString(t *testing.T) {
	assert.Equal(t, "metadata|volume", (ChangeMetadata | ChangeVolume).String())
	assert.Equal(t, "none", ChangeNone.String())
	assert.Equal(t, []Change{ChangeFlags, ChangeName}, (ChangeName | ChangeFlags).Groups())
}

func TestLifecycleHappyPath(t *testing.T) {
	var lifecycle Lifecycle
	assert.Equal(t, LifecycleUnknown, lifecycle.State())
	assert.True(t, lifecycle.Register())
	assert.False(t, lifecycle.Register())
	assert.True(t, lifecycle.BeginExport())
	assert.True(t, lifecycle.Active())
	assert.False(t, lifecycle.CompleteExport(true))
	assert.Equal(t, LifecycleExported, lifecycle.State())
	assert.True(t, lifecycle.Disappear())
	assert.Equal(t, LifecycleUnexporting, lifecycle.State())
	assert.False(t, lifecycle.Disappear())
	lifecycle.CompleteTeardown()
	assert.Equal(t, LifecycleGone, lifecycle.State())
	assert.False(t, lifecycle.Active())
}

func TestLifecycleQueuesTeardownWhileExporting(t *testing.T) {
	var lifecycle Lifecycle
	lifecycle.Register()
	lifecycle.BeginExport()

	assert.False(t, lifecycle.Disappear())
	assert.Equal(t, LifecycleExporting, lifecycle.State())
	assert.False(t, lifecycle.Active())

	assert.True(t, lifecycle.CompleteExport(true))
	assert.Equal(t, LifecycleUnexporting, lifecycle.State())
	lifecycle.CompleteTeardown()
	assert.Equal(t, "gone", lifecycle.State().String())
}

func TestLifecycleFailedExport(t *testing.T) {
	var lifecycle Lifecycle
	lifecycle.Register()
	lifecycle.BeginExport()
	assert.False(t, lifecycle.CompleteExport(false))
	assert.Equal(t, LifecycleRegistered, lifecycle.State())
	// It can be retried
	assert.True(t, lifecycle.BeginExport())
}
