package users

const listQuery = `SELECT * FROM users`
