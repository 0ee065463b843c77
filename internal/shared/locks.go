package shared

// NotificationDispatchLockKey is the redis key guarding concurrent dispatcher runs.
const NotificationDispatchLockKey = "timewise:notify:dispatch:lock"
