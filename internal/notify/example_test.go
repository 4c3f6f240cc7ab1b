package notify_test

import "devscope/internal/notify"

func ExampleAnnounce() {
	notify.Announce("photo.jpg")
	// Output: Processing: photo.jpg
}
