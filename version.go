package dataframe

// Version of the library API. Bumped when the booking surface or the
// expression language changes in an incompatible way.
const Version = "0.1.0"
