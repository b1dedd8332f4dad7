package causeway

const Version = "v0.3.1"
