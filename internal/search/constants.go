package search

const secondsPerMinute = 60
